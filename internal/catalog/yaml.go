package catalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/calcat/internal/errs"
)

// yamlDocument is the on-disk declaration layout:
//
//	tables:
//	  - name: FILER_LINKS_CD
//	    unique_key: [FILER_ID_A, FILER_ID_B]
//	    ordering: [-effect_dt]
//	    provenance:
//	      - {document: 2711614-CalAccessTablesWeb, start: 68, end: 69}
//	    fields:
//	      - {name: filer_id_a, kind: Integer, indexed: true}
type yamlDocument struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name              string       `yaml:"name"`
	DisplayName       string       `yaml:"display_name,omitempty"`
	DisplayNamePlural string       `yaml:"display_name_plural,omitempty"`
	Documentation     string       `yaml:"documentation,omitempty"`
	UniqueKey         keyList      `yaml:"unique_key,omitempty"`
	Ordering          []string     `yaml:"ordering,omitempty"`
	Provenance        []yamlSource `yaml:"provenance,omitempty"`
	Fields            []yamlField  `yaml:"fields"`
}

type yamlSource struct {
	Document string `yaml:"document"`
	Start    int    `yaml:"start"`
	End      int    `yaml:"end,omitempty"`
}

type yamlField struct {
	Name          string       `yaml:"name"`
	Column        string       `yaml:"column,omitempty"`
	Kind          string       `yaml:"kind"`
	MaxLength     int          `yaml:"max_length,omitempty"`
	Null          bool         `yaml:"null,omitempty"`
	Blank         bool         `yaml:"blank,omitempty"`
	Indexed       bool         `yaml:"indexed,omitempty"`
	VerboseName   string       `yaml:"verbose_name,omitempty"`
	Documentation string       `yaml:"documentation,omitempty"`
	Choices       []yamlChoice `yaml:"choices,omitempty"`
}

type yamlChoice struct {
	Value any    `yaml:"value"`
	Label string `yaml:"label"`
}

// keyList accepts either a scalar (single key) or a sequence (composite).
type keyList []string

func (k *keyList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" || n.Value == "" || n.Value == "none" || n.Value == "false" {
			*k = nil
			return nil
		}
		*k = keyList{n.Value}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return err
		}
		*k = names
		return nil
	}
	return fmt.Errorf("line %d: unique_key must be a name or a list of names", n.Line)
}

func (k keyList) MarshalYAML() (any, error) {
	if len(k) == 1 {
		return k[0], nil
	}
	return []string(k), nil
}

// LoadYAML decodes table declarations. Tables are not validated; pass them
// to Catalog.Register for that.
func LoadYAML(r io.Reader) ([]TableSchema, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "decode catalog yaml", err)
	}

	tables := make([]TableSchema, 0, len(doc.Tables))
	for _, yt := range doc.Tables {
		t, err := yt.toSchema()
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "table "+yt.Name, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// EncodeYAML writes tables in the layout LoadYAML reads.
func EncodeYAML(w io.Writer, tables ...TableSchema) error {
	doc := yamlDocument{Tables: make([]yamlTable, len(tables))}
	for i, t := range tables {
		doc.Tables[i] = fromSchema(t)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "encode catalog yaml", err)
	}
	return enc.Close()
}

// RegisterAll registers tables in order and stops at the first failure.
func RegisterAll(c *Catalog, tables []TableSchema) error {
	for _, t := range tables {
		if err := c.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func (yt yamlTable) toSchema() (TableSchema, error) {
	t := TableSchema{
		Name:              yt.Name,
		DisplayName:       yt.DisplayName,
		DisplayNamePlural: yt.DisplayNamePlural,
		Documentation:     yt.Documentation,
		UniqueKey:         CompositeKey(yt.UniqueKey...),
	}

	for _, term := range yt.Ordering {
		if name, desc := strings.CutPrefix(term, "-"); desc {
			t.DefaultOrdering = append(t.DefaultOrdering, OrderBy{Field: name, Direction: Desc})
		} else {
			t.DefaultOrdering = append(t.DefaultOrdering, OrderBy{Field: term, Direction: Asc})
		}
	}

	for _, s := range yt.Provenance {
		t.Provenance = append(t.Provenance, Provenance{DocumentID: s.Document, StartPage: s.Start, EndPage: s.End})
	}

	for _, yf := range yt.Fields {
		kind, ok := ParseFieldKind(yf.Kind)
		if !ok {
			return TableSchema{}, fmt.Errorf("field %s: unknown kind %q", yf.Name, yf.Kind)
		}
		f := FieldSpec{
			Name:          yf.Name,
			Column:        yf.Column,
			Kind:          kind,
			MaxLength:     yf.MaxLength,
			Nullable:      yf.Null,
			Blankable:     yf.Blank,
			Indexed:       yf.Indexed,
			VerboseName:   yf.VerboseName,
			Documentation: yf.Documentation,
		}
		for _, yc := range yf.Choices {
			v, ok := yamlChoiceValue(kind, yc.Value)
			if !ok {
				return TableSchema{}, fmt.Errorf("field %s: bad choice value %v", yf.Name, yc.Value)
			}
			f.Choices = append(f.Choices, Choice{Value: v, Label: yc.Label})
		}
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

func yamlChoiceValue(kind FieldKind, raw any) (ChoiceValue, bool) {
	switch v := raw.(type) {
	case int:
		if kind == KindText {
			return TextChoice(strconv.Itoa(v)), true
		}
		return IntChoice(int64(v)), true
	case string:
		return NormalizeChoiceValue(kind, v)
	}
	return NormalizeChoiceValue(kind, raw)
}

func fromSchema(t TableSchema) yamlTable {
	yt := yamlTable{
		Name:              t.Name,
		DisplayName:       t.DisplayName,
		DisplayNamePlural: t.DisplayNamePlural,
		Documentation:     t.Documentation,
		UniqueKey:         t.UniqueKey.Fields(),
	}
	if yt.DisplayName == t.Name {
		yt.DisplayName = ""
	}
	if yt.DisplayNamePlural == t.DisplayName {
		yt.DisplayNamePlural = ""
	}

	for _, o := range t.DefaultOrdering {
		if o.Direction == Desc {
			yt.Ordering = append(yt.Ordering, "-"+o.Field)
		} else {
			yt.Ordering = append(yt.Ordering, o.Field)
		}
	}
	for _, p := range t.Provenance {
		yt.Provenance = append(yt.Provenance, yamlSource{Document: p.DocumentID, Start: p.StartPage, End: p.EndPage})
	}

	for _, f := range t.Fields {
		yf := yamlField{
			Name:          f.Name,
			Kind:          f.Kind.String(),
			MaxLength:     f.MaxLength,
			Null:          f.Nullable,
			Blank:         f.Blankable,
			Indexed:       f.Indexed,
			VerboseName:   f.VerboseName,
			Documentation: f.Documentation,
		}
		if f.Column != strings.ToUpper(f.Name) {
			yf.Column = f.Column
		}
		for _, c := range f.Choices {
			var v any
			switch {
			case c.Value.IsNull():
				v = nil
			case f.Kind == KindInteger:
				n, _ := strconv.ParseInt(c.Value.Raw(), 10, 64)
				v = n
			default:
				v = c.Value.Raw()
			}
			yf.Choices = append(yf.Choices, yamlChoice{Value: v, Label: c.Label})
		}
		yt.Fields = append(yt.Fields, yf)
	}
	return yt
}
