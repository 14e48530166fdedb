package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/koustreak/calcat/internal/catalog"
)

// MultiFileFormatter writes one file per table plus an overview into a
// directory.
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string
}

func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{OutputDir: outputDir, OutputFormat: format}
}

func (f *MultiFileFormatter) Format(tables []catalog.TableSchema) error {
	// Reject unknown formats before touching the filesystem.
	if _, err := New(f.OutputFormat, io.Discard); err != nil {
		return err
	}
	if err := os.MkdirAll(f.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeFile("_overview", func(w io.Writer) error {
		return writeOverview(w, tables, f.extension())
	}); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, t := range tables {
		err := f.writeFile(t.Name, func(w io.Writer) error {
			if f.OutputFormat == FormatMarkdown {
				NewMarkdownFormatter(w).FormatTable(t)
				return nil
			}
			fm, _ := New(f.OutputFormat, w)
			return fm.Format([]catalog.TableSchema{t})
		})
		if err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", t.Name, err)
		}
	}
	return nil
}

func (f *MultiFileFormatter) writeFile(name string, write func(io.Writer) error) error {
	file, err := os.Create(filepath.Join(f.OutputDir, name+f.extension()))
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (f *MultiFileFormatter) extension() string {
	switch f.OutputFormat {
	case FormatMarkdown, "md":
		return ".md"
	case FormatYAML, "yml":
		return ".yaml"
	default:
		return ".txt"
	}
}

func writeOverview(w io.Writer, tables []catalog.TableSchema, ext string) error {
	_, _ = fmt.Fprintf(w, "# CAL-ACCESS Raw Tables\n\n")
	_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<TABLE>%s`\n\n", ext)
	for _, t := range tables {
		line := fmt.Sprintf("- **%s** (%d fields, key: %s)", t.Name, len(t.Fields), keyString(t.UniqueKey))
		if t.DisplayName != "" && t.DisplayName != t.Name {
			line += ": " + t.DisplayName
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
