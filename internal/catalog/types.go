package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FieldKind is the logical storage type of a column.
type FieldKind int

const (
	KindInteger FieldKind = iota + 1
	KindText
	KindDate
	KindDateTime
)

func (k FieldKind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindText:
		return "Text"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k FieldKind) Valid() bool {
	return k >= KindInteger && k <= KindDateTime
}

// ParseFieldKind accepts the names produced by FieldKind.String, case-insensitively.
func ParseFieldKind(s string) (FieldKind, bool) {
	switch strings.ToLower(s) {
	case "integer", "int":
		return KindInteger, true
	case "text", "char":
		return KindText, true
	case "date":
		return KindDate, true
	case "datetime":
		return KindDateTime, true
	}
	return 0, false
}

// UnknownLabel is the label reported for values outside a field's choices.
const UnknownLabel = "UNKNOWN"

// ChoiceValue is the raw stored value of an enumerated choice: an integer
// code, a text code, or the explicit null sentinel.
type ChoiceValue struct {
	raw  string
	null bool
}

func IntChoice(v int64) ChoiceValue   { return ChoiceValue{raw: strconv.FormatInt(v, 10)} }
func TextChoice(s string) ChoiceValue { return ChoiceValue{raw: s} }
func NullChoice() ChoiceValue         { return ChoiceValue{null: true} }

func (v ChoiceValue) IsNull() bool { return v.null }

// Raw returns the stored representation; empty for the null sentinel.
func (v ChoiceValue) Raw() string { return v.raw }

func (v ChoiceValue) String() string {
	if v.null {
		return "NULL"
	}
	return v.raw
}

// Choice pairs a raw value with its human label.
type Choice struct {
	Value ChoiceValue
	Label string
}

// Choices is an ordered enumeration. An empty Choices means the field is
// unconstrained.
type Choices []Choice

// Contains reports whether v is one of the enumerated values.
func (cs Choices) Contains(v ChoiceValue) bool {
	for _, c := range cs {
		if c.Value == v {
			return true
		}
	}
	return false
}

// Label returns the label for v, or UnknownLabel.
func (cs Choices) Label(v ChoiceValue) string {
	for _, c := range cs {
		if c.Value == v {
			return c.Label
		}
	}
	return UnknownLabel
}

// FieldSpec describes one column.
type FieldSpec struct {
	Name          string
	Column        string // physical column; defaults to upper-cased Name
	Kind          FieldKind
	MaxLength     int // Text only
	Nullable      bool
	Blankable     bool
	Indexed       bool
	Choices       Choices
	VerboseName   string
	Documentation string
}

// ColumnName returns the physical column name.
func (f FieldSpec) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return strings.ToUpper(f.Name)
}

// Label returns the verbose name, falling back to the field name.
func (f FieldSpec) Label() string {
	if f.VerboseName != "" {
		return f.VerboseName
	}
	return strings.ReplaceAll(f.Name, "_", " ")
}

// KeyShape is the form a declared natural key takes.
type KeyShape int

const (
	KeyNone KeyShape = iota
	KeySingle
	KeyComposite
)

func (s KeyShape) String() string {
	switch s {
	case KeySingle:
		return "single"
	case KeyComposite:
		return "composite"
	default:
		return "none"
	}
}

// UniqueKey is a table's declared natural key. The zero value declares no
// key. Field order is significant and never changed.
type UniqueKey struct {
	fields []string
}

// NoKey declares that no reliable natural key is known.
func NoKey() UniqueKey { return UniqueKey{} }

func SingleKey(field string) UniqueKey {
	return UniqueKey{fields: []string{field}}
}

// CompositeKey declares a tuple key. A single name yields a single key.
func CompositeKey(fields ...string) UniqueKey {
	if len(fields) == 0 {
		return NoKey()
	}
	return UniqueKey{fields: slices.Clone(fields)}
}

func (k UniqueKey) Shape() KeyShape {
	switch len(k.fields) {
	case 0:
		return KeyNone
	case 1:
		return KeySingle
	default:
		return KeyComposite
	}
}

// Fields returns a copy of the key's field names in declared order.
func (k UniqueKey) Fields() []string {
	return slices.Clone(k.fields)
}

func (k UniqueKey) Len() int { return len(k.fields) }

// String renders none, name, or (a,b,...).
func (k UniqueKey) String() string {
	switch k.Shape() {
	case KeyNone:
		return "none"
	case KeySingle:
		return k.fields[0]
	default:
		return "(" + strings.Join(k.fields, ",") + ")"
	}
}

// Equal reports whether both keys name the same fields in the same order.
func (k UniqueKey) Equal(o UniqueKey) bool {
	return slices.Equal(k.fields, o.fields)
}

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderBy is one term of a default ordering.
type OrderBy struct {
	Field     string
	Direction Direction
}

func (o OrderBy) String() string {
	return o.Field + " " + o.Direction.String()
}

// documentCloudURL is the page URL template for provenance links.
const documentCloudURL = "https://www.documentcloud.org/documents/%s/pages/%d.html"

// Provenance points at the pages of an external reference document that
// define a table. EndPage zero means the reference is a single page.
type Provenance struct {
	DocumentID string
	StartPage  int
	EndPage    int
}

// Pages returns the referenced page numbers in order.
func (p Provenance) Pages() []int {
	end := p.EndPage
	if end < p.StartPage {
		end = p.StartPage
	}
	pages := make([]int, 0, end-p.StartPage+1)
	for n := p.StartPage; n <= end; n++ {
		pages = append(pages, n)
	}
	return pages
}

// URL links the first referenced page.
func (p Provenance) URL() string {
	return fmt.Sprintf(documentCloudURL, p.DocumentID, p.StartPage)
}

func (p Provenance) String() string {
	if p.EndPage > p.StartPage {
		return fmt.Sprintf("%s p.%d-%d", p.DocumentID, p.StartPage, p.EndPage)
	}
	return fmt.Sprintf("%s p.%d", p.DocumentID, p.StartPage)
}

// TableSchema describes one table.
type TableSchema struct {
	Name              string
	DisplayName       string
	DisplayNamePlural string
	Documentation     string
	Fields            []FieldSpec
	UniqueKey         UniqueKey
	DefaultOrdering   []OrderBy
	Provenance        []Provenance
}

// Field resolves name against logical field names first, then physical
// column names.
func (t TableSchema) Field(name string) (FieldSpec, bool) {
	if i := t.fieldIndex(name); i >= 0 {
		return t.Fields[i], true
	}
	return FieldSpec{}, false
}

func (t TableSchema) fieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	for i, f := range t.Fields {
		if f.ColumnName() == name {
			return i
		}
	}
	return -1
}

// KeyFields resolves the unique key to field specs in declared order.
func (t TableSchema) KeyFields() []FieldSpec {
	out := make([]FieldSpec, 0, t.UniqueKey.Len())
	for _, name := range t.UniqueKey.fields {
		if f, ok := t.Field(name); ok {
			out = append(out, f)
		}
	}
	return out
}

// Columns returns the physical column names in declared order.
func (t TableSchema) Columns() []string {
	cols := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		cols[i] = f.ColumnName()
	}
	return cols
}

// Clone returns a deep copy.
func (t TableSchema) Clone() TableSchema {
	c := t
	c.Fields = make([]FieldSpec, len(t.Fields))
	for i, f := range t.Fields {
		f.Choices = slices.Clone(f.Choices)
		c.Fields[i] = f
	}
	c.UniqueKey = CompositeKey(t.UniqueKey.fields...)
	c.DefaultOrdering = slices.Clone(t.DefaultOrdering)
	c.Provenance = slices.Clone(t.Provenance)
	return c
}
