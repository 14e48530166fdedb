package schema

import (
	"context"

	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
)

// PgIntrospector implements Reader for PostgreSQL using information_schema.
type PgIntrospector struct {
	db database.DB
}

// NewPgIntrospector creates a new Postgres schema introspector.
func NewPgIntrospector(db database.DB) *PgIntrospector {
	return &PgIntrospector{db: db}
}

// ListTables returns all user-defined table names in the given schema.
func (p *PgIntrospector) ListTables(ctx context.Context, schema string) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.db.Query(ctx, q, schema)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

// TableExists checks whether a specific table exists.
func (p *PgIntrospector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`

	var exists bool
	if err := p.db.QueryRow(ctx, q, schema, table).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// InspectTable returns column details for a single table.
func (p *PgIntrospector) InspectTable(ctx context.Context, schema, table string) (*TableInfo, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES'              AS is_nullable,
			c.column_default,
			c.character_maximum_length,
			COALESCE(pk.is_pk, false)          AS is_primary_key,
			COALESCE(uq.is_unique, false)      AS is_unique
		FROM information_schema.columns c

		LEFT JOIN (
			SELECT kcu.column_name, true AS is_pk
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
			  AND tc.table_schema = $1
			  AND tc.table_name   = $2
		) pk ON pk.column_name = c.column_name

		LEFT JOIN (
			SELECT kcu.column_name, true AS is_unique
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'UNIQUE'
			  AND tc.table_schema = $1
			  AND tc.table_name   = $2
		) uq ON uq.column_name = c.column_name

		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	rows, err := p.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, err
	}
	return scanColumns(rows, schema, table)
}

// scanNames drains a single-column result of names.
func scanNames(rows database.Rows) ([]string, error) {
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// scanColumns reads the seven-column layout shared by the information_schema
// queries.
func scanColumns(rows database.Rows, schema, table string) (*TableInfo, error) {
	defer rows.Close()

	info := &TableInfo{Schema: schema, Name: table}
	for rows.Next() {
		var col ColumnInfo
		if err := rows.Scan(
			&col.Name,
			&col.DataType,
			&col.IsNullable,
			&col.DefaultValue,
			&col.MaxLength,
			&col.IsPrimaryKey,
			&col.IsUnique,
		); err != nil {
			return nil, err
		}
		info.Columns = append(info.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(info.Columns) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %s.%s not found or has no columns", schema, table)
	}
	return info, nil
}
