package server

import (
	"strconv"

	"github.com/koustreak/calcat/internal/catalog"
)

// JSON shapes returned by the API.

type tableSummary struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Fields      int      `json:"fields"`
	UniqueKey   []string `json:"unique_key"`
}

type tableView struct {
	Name              string       `json:"name"`
	DisplayName       string       `json:"display_name,omitempty"`
	DisplayNamePlural string       `json:"display_name_plural,omitempty"`
	Documentation     string       `json:"documentation,omitempty"`
	UniqueKey         keyView      `json:"unique_key"`
	DefaultOrdering   []orderView  `json:"default_ordering"`
	Fields            []fieldView  `json:"fields"`
	Sources           []sourceView `json:"sources,omitempty"`
}

type keyView struct {
	Table   string   `json:"table,omitempty"`
	Shape   string   `json:"shape"`
	Fields  []string `json:"fields"`
	Columns []string `json:"columns"`
}

type orderView struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type fieldView struct {
	Name          string       `json:"name"`
	Column        string       `json:"column"`
	Kind          string       `json:"kind"`
	MaxLength     int          `json:"max_length,omitempty"`
	Nullable      bool         `json:"nullable"`
	Blankable     bool         `json:"blankable"`
	Indexed       bool         `json:"indexed"`
	VerboseName   string       `json:"verbose_name,omitempty"`
	Documentation string       `json:"documentation,omitempty"`
	Choices       []choiceView `json:"choices,omitempty"`
}

// choiceView.Value is null for the null sentinel and a number for integer
// fields.
type choiceView struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

type sourceView struct {
	Document string `json:"document"`
	Pages    []int  `json:"pages"`
	URL      string `json:"url"`
}

type membershipView struct {
	Table  string `json:"table"`
	Field  string `json:"field"`
	Value  any    `json:"value"`
	Member bool   `json:"member"`
	Label  string `json:"label"`
}

type choicesView struct {
	Table   string       `json:"table"`
	Field   string       `json:"field"`
	Column  string       `json:"column"`
	Choices []choiceView `json:"choices"`
}

type healthView struct {
	Status   string `json:"status"`
	Tables   int    `json:"tables"`
	Database string `json:"database,omitempty"`
}

type errorView struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func summarize(t catalog.TableSchema) tableSummary {
	return tableSummary{
		Name:        t.Name,
		DisplayName: t.DisplayName,
		Fields:      len(t.Fields),
		UniqueKey:   t.UniqueKey.Fields(),
	}
}

func newTableView(t catalog.TableSchema) tableView {
	v := tableView{
		Name:              t.Name,
		DisplayName:       t.DisplayName,
		DisplayNamePlural: t.DisplayNamePlural,
		Documentation:     t.Documentation,
		UniqueKey:         newKeyView(t),
		DefaultOrdering:   make([]orderView, len(t.DefaultOrdering)),
		Fields:            make([]fieldView, len(t.Fields)),
	}
	for i, o := range t.DefaultOrdering {
		v.DefaultOrdering[i] = orderView{Field: o.Field, Direction: o.Direction.String()}
	}
	for i, f := range t.Fields {
		v.Fields[i] = newFieldView(f)
	}
	for _, p := range t.Provenance {
		v.Sources = append(v.Sources, sourceView{Document: p.DocumentID, Pages: p.Pages(), URL: p.URL()})
	}
	return v
}

func newKeyView(t catalog.TableSchema) keyView {
	v := keyView{
		Shape:   t.UniqueKey.Shape().String(),
		Fields:  make([]string, 0, t.UniqueKey.Len()),
		Columns: make([]string, 0, t.UniqueKey.Len()),
	}
	for _, f := range t.KeyFields() {
		v.Fields = append(v.Fields, f.Name)
		v.Columns = append(v.Columns, f.ColumnName())
	}
	return v
}

func newFieldView(f catalog.FieldSpec) fieldView {
	v := fieldView{
		Name:          f.Name,
		Column:        f.ColumnName(),
		Kind:          f.Kind.String(),
		MaxLength:     f.MaxLength,
		Nullable:      f.Nullable,
		Blankable:     f.Blankable,
		Indexed:       f.Indexed,
		VerboseName:   f.VerboseName,
		Documentation: f.Documentation,
	}
	v.Choices = choiceViews(f)
	return v
}

func choiceViews(f catalog.FieldSpec) []choiceView {
	if len(f.Choices) == 0 {
		return nil
	}
	out := make([]choiceView, len(f.Choices))
	for i, c := range f.Choices {
		out[i] = choiceView{Value: jsonValue(f.Kind, c.Value), Label: c.Label}
	}
	return out
}

func jsonValue(kind catalog.FieldKind, v catalog.ChoiceValue) any {
	if v.IsNull() {
		return nil
	}
	if kind == catalog.KindInteger {
		if n, err := strconv.ParseInt(v.Raw(), 10, 64); err == nil {
			return n
		}
	}
	return v.Raw()
}
