package schema

import (
	"context"

	"github.com/koustreak/calcat/internal/database"
)

// MySQLIntrospector implements Reader for MySQL using information_schema.
// An empty schema means the connection's current database.
type MySQLIntrospector struct {
	db database.DB
}

// NewMySQLIntrospector creates a new MySQL schema introspector.
func NewMySQLIntrospector(db database.DB) *MySQLIntrospector {
	return &MySQLIntrospector{db: db}
}

func (m *MySQLIntrospector) ListTables(ctx context.Context, schema string) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.Query(ctx, q, schema)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (m *MySQLIntrospector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT COUNT(*) > 0
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_name = ?`

	var exists bool
	if err := m.db.QueryRow(ctx, q, schema, table).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (m *MySQLIntrospector) InspectTable(ctx context.Context, schema, table string) (*TableInfo, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES'                         AS is_nullable,
			c.column_default,
			c.character_maximum_length,
			(c.column_key = 'PRI')                        AS is_primary_key,
			(c.column_key = 'UNI')                        AS is_unique
		FROM information_schema.columns c
		WHERE c.table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND c.table_name   = ?
		ORDER BY c.ordinal_position`

	rows, err := m.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, err
	}
	return scanColumns(rows, schema, table)
}
