// Package formatter renders catalog declarations for people and tools:
// the round-trippable line format, YAML, and a Markdown reference.
package formatter

import (
	"io"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/errs"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
)

// Formatter writes a set of table declarations.
type Formatter interface {
	Format(tables []catalog.TableSchema) error
}

// New returns the formatter for format writing to w.
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextFormatter(w), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(w), nil
	case FormatYAML, "yml":
		return NewYAMLFormatter(w), nil
	}
	return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown format %q (want text, markdown or yaml)", format)
}

// TextFormatter writes the line format read back by catalog.Decode.
type TextFormatter struct {
	writer io.Writer
}

func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

func (f *TextFormatter) Format(tables []catalog.TableSchema) error {
	return catalog.Encode(f.writer, tables...)
}

// YAMLFormatter writes the document read back by catalog.LoadYAML.
type YAMLFormatter struct {
	writer io.Writer
}

func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

func (f *YAMLFormatter) Format(tables []catalog.TableSchema) error {
	return catalog.EncodeYAML(f.writer, tables...)
}
