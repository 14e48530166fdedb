package schema

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/errs"
)

// DriftKind classifies a difference between declaration and database.
type DriftKind int

const (
	DriftMissingTable DriftKind = iota
	DriftMissingColumn
	DriftExtraColumn
	DriftNullability
	DriftMaxLength
	DriftType
)

func (k DriftKind) String() string {
	switch k {
	case DriftMissingTable:
		return "missing_table"
	case DriftMissingColumn:
		return "missing_column"
	case DriftExtraColumn:
		return "extra_column"
	case DriftNullability:
		return "nullability"
	case DriftMaxLength:
		return "max_length"
	case DriftType:
		return "type"
	default:
		return "unknown"
	}
}

// Drift is one difference. Declared and Live are empty when not applicable.
type Drift struct {
	Table    string
	Column   string
	Kind     DriftKind
	Declared string
	Live     string
}

func (d Drift) String() string {
	var sb strings.Builder
	sb.WriteString(d.Table)
	if d.Column != "" {
		sb.WriteString("." + d.Column)
	}
	sb.WriteString(": " + d.Kind.String())
	if d.Declared != "" || d.Live != "" {
		fmt.Fprintf(&sb, " (declared %s, live %s)", orDash(d.Declared), orDash(d.Live))
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// surrogateColumn is the auto-increment primary key loaders add to every
// raw table. It is never declared.
const surrogateColumn = "id"

// Compare reports how live differs from t. It never fails: an empty result
// means the table matches its declaration.
func Compare(t catalog.TableSchema, live *TableInfo) []Drift {
	var out []Drift
	declared := make(map[string]bool, len(t.Fields))

	for _, f := range t.Fields {
		colName := f.ColumnName()
		declared[strings.ToLower(colName)] = true

		col, ok := live.Column(colName)
		if !ok {
			out = append(out, Drift{Table: t.Name, Column: colName, Kind: DriftMissingColumn})
			continue
		}

		if f.Nullable != col.IsNullable {
			out = append(out, Drift{
				Table: t.Name, Column: colName, Kind: DriftNullability,
				Declared: nullability(f.Nullable), Live: nullability(col.IsNullable),
			})
		}

		if kind, known := kindOf(col.DataType); known && kind != f.Kind {
			out = append(out, Drift{
				Table: t.Name, Column: colName, Kind: DriftType,
				Declared: f.Kind.String(), Live: col.DataType,
			})
		}

		if f.Kind == catalog.KindText && col.MaxLength != nil && *col.MaxLength != f.MaxLength {
			out = append(out, Drift{
				Table: t.Name, Column: colName, Kind: DriftMaxLength,
				Declared: strconv.Itoa(f.MaxLength), Live: strconv.Itoa(*col.MaxLength),
			})
		}
	}

	for _, col := range live.Columns {
		if declared[strings.ToLower(col.Name)] {
			continue
		}
		if col.IsPrimaryKey && equalIdent(col.Name, surrogateColumn) {
			continue
		}
		out = append(out, Drift{Table: t.Name, Column: col.Name, Kind: DriftExtraColumn, Live: col.DataType})
	}
	return out
}

// CheckCatalog compares every table in tables against the database behind
// r. A table missing from the database is reported as drift, not an error;
// errors are reserved for failed introspection.
func CheckCatalog(ctx context.Context, r Reader, schema string, tables iter.Seq[catalog.TableSchema]) ([]Drift, error) {
	var out []Drift
	for t := range tables {
		live, err := inspect(ctx, r, schema, t.Name)
		if errs.IsNotFound(err) {
			out = append(out, Drift{Table: t.Name, Kind: DriftMissingTable})
			continue
		}
		if err != nil {
			return out, fmt.Errorf("inspect %s: %w", t.Name, err)
		}
		out = append(out, Compare(t, live)...)
	}
	return out, nil
}

// inspect tries the declared name and then its lower-case form.
func inspect(ctx context.Context, r Reader, schema, table string) (*TableInfo, error) {
	live, err := r.InspectTable(ctx, schema, table)
	if errs.IsNotFound(err) && strings.ToLower(table) != table {
		return r.InspectTable(ctx, schema, strings.ToLower(table))
	}
	return live, err
}

func nullability(null bool) string {
	if null {
		return "NULL"
	}
	return "NOT NULL"
}

// kindOf maps a backend type name to a field kind. Unrecognised types
// report known=false and are not compared.
func kindOf(dataType string) (kind catalog.FieldKind, known bool) {
	t := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "integer", "int", "int2", "int4", "int8", "smallint", "bigint", "mediumint", "tinyint":
		return catalog.KindInteger, true
	case "character varying", "varchar", "character", "char", "text", "nvarchar":
		return catalog.KindText, true
	case "date":
		return catalog.KindDate, true
	case "timestamp", "timestamp without time zone", "timestamp with time zone", "timestamptz", "datetime":
		return catalog.KindDateTime, true
	}
	return 0, false
}

func equalIdent(a, b string) bool { return strings.EqualFold(a, b) }
