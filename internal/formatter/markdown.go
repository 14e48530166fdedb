package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/koustreak/calcat/internal/catalog"
)

// MarkdownFormatter writes a human-readable reference page
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes a title followed by one section per table
func (f *MarkdownFormatter) Format(tables []catalog.TableSchema) error {
	_, _ = fmt.Fprintln(f.writer, "# CAL-ACCESS Raw Tables")
	_, _ = fmt.Fprintln(f.writer)

	for _, t := range tables {
		f.FormatTable(t)
	}
	return nil
}

// FormatTable writes a single table section (used by the multi-file formatter)
func (f *MarkdownFormatter) FormatTable(t catalog.TableSchema) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", t.Name)

	if t.DisplayName != "" && t.DisplayName != t.Name {
		_, _ = fmt.Fprintf(f.writer, "_%s_\n\n", t.DisplayName)
	}
	if t.Documentation != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n\n", t.Documentation)
	}

	_, _ = fmt.Fprintf(f.writer, "**Unique key:** %s\n\n", keyString(t.UniqueKey))

	if len(t.DefaultOrdering) > 0 {
		terms := make([]string, len(t.DefaultOrdering))
		for i, o := range t.DefaultOrdering {
			terms[i] = o.String()
		}
		_, _ = fmt.Fprintf(f.writer, "**Default ordering:** %s\n\n", strings.Join(terms, ", "))
	}

	// Columns
	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, field := range t.Fields {
		f.formatField(field)
	}
	_, _ = fmt.Fprintln(f.writer)

	// Sources
	if len(t.Provenance) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Sources")
		_, _ = fmt.Fprintln(f.writer)
		for _, p := range t.Provenance {
			_, _ = fmt.Fprintf(f.writer, "- [%s](%s)\n", p.String(), p.URL())
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatField(field catalog.FieldSpec) {
	line := fmt.Sprintf("- **%s:** %s", field.ColumnName(), typeString(field))
	if c := constraints(field); c != "" {
		line += ", " + c
	}
	if field.VerboseName != "" {
		line += " (" + field.VerboseName + ")"
	}
	_, _ = fmt.Fprintln(f.writer, line)

	if field.Documentation != "" {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", field.Documentation)
	}
	for _, c := range field.Choices {
		_, _ = fmt.Fprintf(f.writer, "  - `%s`: %s\n", c.Value.String(), c.Label)
	}
}

func typeString(field catalog.FieldSpec) string {
	if field.Kind == catalog.KindText && field.MaxLength > 0 {
		return fmt.Sprintf("Text(%d)", field.MaxLength)
	}
	return field.Kind.String()
}

func constraints(field catalog.FieldSpec) string {
	var out []string
	if !field.Nullable {
		out = append(out, "NOT NULL")
	}
	if field.Blankable {
		out = append(out, "blank allowed")
	}
	if field.Indexed {
		out = append(out, "indexed")
	}
	return strings.Join(out, ", ")
}

func keyString(k catalog.UniqueKey) string {
	if k.Shape() == catalog.KeyNone {
		return "none declared"
	}
	return strings.Join(k.Fields(), ", ")
}
