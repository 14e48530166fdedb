// Package schema reads the structure of a live database and compares it
// with the catalog's declarations.
package schema

import (
	"context"

	"github.com/koustreak/calcat/internal/database"
)

// Reader is the interface for introspecting a database schema.
type Reader interface {
	// ListTables returns all user tables in the given schema (e.g. "public").
	ListTables(ctx context.Context, schema string) ([]string, error)

	// TableExists checks whether a table exists.
	TableExists(ctx context.Context, schema, table string) (bool, error)

	// InspectTable returns full column info for a table.
	InspectTable(ctx context.Context, schema, table string) (*TableInfo, error)
}

// NewReader picks the introspector matching db's dialect.
func NewReader(db database.DB) Reader {
	switch db.Dialect() {
	case database.DialectMySQL:
		return NewMySQLIntrospector(db)
	case database.DialectSQLite:
		return NewSQLiteIntrospector(db)
	default:
		return NewPgIntrospector(db)
	}
}

// DefaultSchema is the schema searched when the caller names none.
func DefaultSchema(d database.Dialect) string {
	switch d {
	case database.DialectSQLite:
		return "main"
	case database.DialectMySQL:
		return "" // DATABASE()
	default:
		return "public"
	}
}
