package catalog

import (
	"fmt"
	"strconv"

	"github.com/koustreak/calcat/internal/errs"
)

// Validate checks t's structural invariants without registering it.
func Validate(t TableSchema) error {
	if t.Name == "" {
		return errs.New(errs.ErrKindInvalidFieldSpec, "table name is empty")
	}
	if len(t.Fields) == 0 {
		return errs.Newf(errs.ErrKindInvalidFieldSpec, "table %q declares no fields", t.Name)
	}

	names := make(map[string]bool, len(t.Fields))
	columns := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if err := validateField(t.Name, f); err != nil {
			return err
		}
		if names[f.Name] {
			return errs.Newf(errs.ErrKindInvalidFieldSpec, "%s: duplicate field %q", t.Name, f.Name)
		}
		if columns[f.ColumnName()] {
			return errs.Newf(errs.ErrKindInvalidFieldSpec, "%s: duplicate column %q", t.Name, f.ColumnName())
		}
		names[f.Name] = true
		columns[f.ColumnName()] = true
	}

	seen := make(map[int]bool, t.UniqueKey.Len())
	for _, name := range t.UniqueKey.fields {
		i := t.fieldIndex(name)
		if i < 0 {
			return errs.Newf(errs.ErrKindInvalidKey, "%s: unique key references unknown field %q", t.Name, name)
		}
		if seen[i] {
			return errs.Newf(errs.ErrKindInvalidKey, "%s: unique key repeats field %q", t.Name, name)
		}
		seen[i] = true
	}

	ordered := make(map[int]bool, len(t.DefaultOrdering))
	for _, o := range t.DefaultOrdering {
		i := t.fieldIndex(o.Field)
		if i < 0 {
			return errs.Newf(errs.ErrKindInvalidOrdering, "%s: ordering references unknown field %q", t.Name, o.Field)
		}
		if ordered[i] {
			return errs.Newf(errs.ErrKindInvalidOrdering, "%s: ordering repeats field %q", t.Name, o.Field)
		}
		if o.Direction != Asc && o.Direction != Desc {
			return errs.Newf(errs.ErrKindInvalidOrdering, "%s: bad direction for %q", t.Name, o.Field)
		}
		ordered[i] = true
	}

	for _, p := range t.Provenance {
		if p.DocumentID == "" || p.StartPage < 1 || (p.EndPage != 0 && p.EndPage < p.StartPage) {
			return errs.Newf(errs.ErrKindInvalidFieldSpec, "%s: bad provenance %q", t.Name, p.String())
		}
	}
	return nil
}

func validateField(table string, f FieldSpec) error {
	bad := func(format string, args ...any) error {
		return errs.Newf(errs.ErrKindInvalidFieldSpec, "%s.%s: %s", table, f.Name, fmt.Sprintf(format, args...))
	}

	if f.Name == "" {
		return errs.Newf(errs.ErrKindInvalidFieldSpec, "%s: field with empty name", table)
	}
	if !f.Kind.Valid() {
		return bad("unknown kind %d", int(f.Kind))
	}

	switch {
	case f.Kind == KindText && f.MaxLength == 0:
		return bad("text field needs a max length")
	case f.Kind == KindText && f.MaxLength < 0:
		return bad("max length %d must be positive", f.MaxLength)
	case f.Kind != KindText && f.MaxLength != 0:
		return bad("max length set on %s field", f.Kind)
	}

	values := make(map[ChoiceValue]bool, len(f.Choices))
	for _, c := range f.Choices {
		if values[c.Value] {
			return bad("duplicate choice %s", c.Value)
		}
		values[c.Value] = true
		if f.Kind == KindInteger && !c.Value.IsNull() {
			if _, err := strconv.ParseInt(c.Value.raw, 10, 64); err != nil {
				return bad("choice %q is not an integer", c.Value.raw)
			}
		}
	}
	return nil
}
