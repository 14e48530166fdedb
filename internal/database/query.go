package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/errs"
)

// Dialect controls identifier quoting and placeholder style.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and "ident" quoting.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and `ident` quoting.
	DialectMySQL

	// DialectSQLite uses ? placeholders and "ident" quoting.
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// ParseDialect accepts the names printed by Dialect.String.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return 0, errs.Newf(errs.ErrKindInvalidInput, "unknown dialect %q", s)
}

// validOps is the allowlist of comparison operators for WHERE clauses.
// The operator position cannot be parameterized.
var validOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<>":   true,
	"<":    true,
	">":    true,
	"<=":   true,
	">=":   true,
	"LIKE": true,
}

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Values are never interpolated into the SQL string.
//
// Usage:
//
//	sql, args, err := Select("FILERS_CD", DialectPostgres).
//	    Columns("FILER_ID", "STATUS").
//	    Where("STATUS", "=", "A").
//	    OrderBy("FILER_ID", catalog.Desc).
//	    Limit(20).
//	    Build()
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	where   []whereClause
	orderBy []orderClause
	limit   *int
	offset  *int
}

type whereClause struct {
	column string
	op     string
	value  any
}

type orderClause struct {
	column string
	dir    catalog.Direction
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition. Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// OrderBy appends an ORDER BY term.
func (b *SelectBuilder) OrderBy(column string, dir catalog.Direction) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the number of rows to skip.
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = &n
	return b
}

// Build produces the final SQL string and argument slice.
// Returns an error if any WHERE operator is not in the allowlist.
func (b *SelectBuilder) Build() (string, []any, error) {
	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.dialect.QuoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.dialect.QuoteIdent(b.table))

	var args []any
	argIdx := 1

	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			op := strings.ToUpper(w.op)
			if !validOps[op] {
				return "", nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported WHERE operator: %q", w.op)
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", b.dialect.QuoteIdent(w.column), op, b.dialect.placeholder(argIdx)))
			args = append(args, w.value)
			argIdx++
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			parts[i] = b.dialect.QuoteIdent(o.column) + " " + o.dir.String()
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	if b.limit != nil {
		sb.WriteString(" LIMIT " + b.dialect.placeholder(argIdx))
		args = append(args, *b.limit)
		argIdx++
	}

	if b.offset != nil {
		sb.WriteString(" OFFSET " + b.dialect.placeholder(argIdx))
		args = append(args, *b.offset)
	}

	return sb.String(), args, nil
}

// ListQuery selects every declared column of t in its default ordering.
// limit <= 0 means no limit.
func ListQuery(t catalog.TableSchema, d Dialect, limit int) (string, []any, error) {
	b := Select(t.Name, d).Columns(t.Columns()...)
	for _, o := range t.DefaultOrdering {
		f, ok := t.Field(o.Field)
		if !ok {
			return "", nil, errs.Newf(errs.ErrKindInvalidOrdering, "%s: ordering references unknown field %q", t.Name, o.Field)
		}
		b.OrderBy(f.ColumnName(), o.Direction)
	}
	if limit > 0 {
		b.Limit(limit)
	}
	return b.Build()
}

// placeholder returns the parameter placeholder for the dialect.
func (d Dialect) placeholder(idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// QuoteIdent quotes a SQL identifier for the dialect, doubling any embedded
// quote character.
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
