package calaccess

import "github.com/koustreak/calcat/internal/catalog"

// TablesDocument is the DocumentCloud id of the official CAL-ACCESS table
// reference.
const TablesDocument = "2711614-CalAccessTablesWeb"

const undocumented = "This field is undocumented"

type fieldOpt func(*catalog.FieldSpec)

func null(f *catalog.FieldSpec)    { f.Nullable = true }
func blank(f *catalog.FieldSpec)   { f.Blankable = true }
func indexed(f *catalog.FieldSpec) { f.Indexed = true }

func verbose(name string) fieldOpt {
	return func(f *catalog.FieldSpec) { f.VerboseName = name }
}

func column(name string) fieldOpt {
	return func(f *catalog.FieldSpec) { f.Column = name }
}

func choices(cs catalog.Choices) fieldOpt {
	return func(f *catalog.FieldSpec) { f.Choices = cs }
}

func field(name string, kind catalog.FieldKind, maxLen int, doc string, opts []fieldOpt) catalog.FieldSpec {
	f := catalog.FieldSpec{Name: name, Kind: kind, MaxLength: maxLen, Documentation: doc}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func integer(name, doc string, opts ...fieldOpt) catalog.FieldSpec {
	return field(name, catalog.KindInteger, 0, doc, opts)
}

func text(name string, maxLen int, doc string, opts ...fieldOpt) catalog.FieldSpec {
	return field(name, catalog.KindText, maxLen, doc, opts)
}

func date(name, doc string, opts ...fieldOpt) catalog.FieldSpec {
	return field(name, catalog.KindDate, 0, doc, opts)
}

func datetime(name, doc string, opts ...fieldOpt) catalog.FieldSpec {
	return field(name, catalog.KindDateTime, 0, doc, opts)
}

// Fields shared by many tables.

func filerID() catalog.FieldSpec {
	return integer("filer_id", "Filer's unique identification number", verbose("filer ID"), null, indexed)
}

func sessionID() catalog.FieldSpec {
	return integer("session_id", "Legislative session identification number", verbose("session ID"), null)
}

func page(start int) catalog.Provenance {
	return catalog.Provenance{DocumentID: TablesDocument, StartPage: start}
}

func pages(start, end int) catalog.Provenance {
	return catalog.Provenance{DocumentID: TablesDocument, StartPage: start, EndPage: end}
}

func asc(field string) catalog.OrderBy  { return catalog.OrderBy{Field: field, Direction: catalog.Asc} }
func desc(field string) catalog.OrderBy { return catalog.OrderBy{Field: field, Direction: catalog.Desc} }

func intChoices(pairs ...any) catalog.Choices {
	cs := make(catalog.Choices, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		v := catalog.NullChoice()
		if n, ok := pairs[i].(int); ok {
			v = catalog.IntChoice(int64(n))
		}
		cs = append(cs, catalog.Choice{Value: v, Label: pairs[i+1].(string)})
	}
	return cs
}

func textChoices(pairs ...string) catalog.Choices {
	cs := make(catalog.Choices, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cs = append(cs, catalog.Choice{Value: catalog.TextChoice(pairs[i]), Label: pairs[i+1]})
	}
	return cs
}
