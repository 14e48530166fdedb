package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/calcat/internal/catalog"
)

// ColumnType maps a field's kind and length to a physical column type.
func ColumnType(f catalog.FieldSpec, d Dialect) string {
	switch f.Kind {
	case catalog.KindInteger:
		return "INTEGER"
	case catalog.KindText:
		return fmt.Sprintf("VARCHAR(%d)", f.MaxLength)
	case catalog.KindDate:
		return "DATE"
	case catalog.KindDateTime:
		if d == DialectPostgres {
			return "TIMESTAMP"
		}
		return "DATETIME"
	}
	return "TEXT"
}

// DDL renders CREATE TABLE for t followed by one CREATE INDEX per indexed
// field. The unique key is not emitted as a constraint: raw extracts are
// known to violate it.
func DDL(t catalog.TableSchema, d Dialect) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "CREATE TABLE %s (\n", d.QuoteIdent(t.Name))
	for i, f := range t.Fields {
		sb.WriteString("    " + d.QuoteIdent(f.ColumnName()) + " " + ColumnType(f, d))
		if !f.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if i < len(t.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(");\n")

	for _, f := range t.Fields {
		if !f.Indexed {
			continue
		}
		col := f.ColumnName()
		fmt.Fprintf(&sb, "CREATE INDEX %s ON %s (%s);\n",
			d.QuoteIdent(strings.ToLower(t.Name+"_"+col+"_idx")),
			d.QuoteIdent(t.Name),
			d.QuoteIdent(col))
	}
	return sb.String()
}
