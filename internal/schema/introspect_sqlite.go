package schema

import (
	"context"
	"regexp"
	"strconv"

	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
)

// SQLiteIntrospector implements Reader for SQLite using sqlite_master and
// PRAGMA table_info. The schema argument is ignored.
type SQLiteIntrospector struct {
	db database.DB
}

func NewSQLiteIntrospector(db database.DB) *SQLiteIntrospector {
	return &SQLiteIntrospector{db: db}
}

func (s *SQLiteIntrospector) ListTables(ctx context.Context, _ string) ([]string, error) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (s *SQLiteIntrospector) TableExists(ctx context.Context, _ string, table string) (bool, error) {
	const q = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE`

	var n int
	if err := s.db.QueryRow(ctx, q, table).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// varcharLen pulls the length out of declared types like VARCHAR(40).
var varcharLen = regexp.MustCompile(`\((\d+)\)`)

func (s *SQLiteIntrospector) InspectTable(ctx context.Context, schema, table string) (*TableInfo, error) {
	// PRAGMA arguments cannot be bound.
	rows, err := s.db.Query(ctx, "PRAGMA table_info("+database.DialectSQLite.QuoteIdent(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	info := &TableInfo{Schema: schema, Name: table}
	for rows.Next() {
		var (
			cid     int
			col     ColumnInfo
			notNull int
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &col.DefaultValue, &pk); err != nil {
			return nil, err
		}
		col.IsNullable = notNull == 0
		col.IsPrimaryKey = pk > 0
		if m := varcharLen.FindStringSubmatch(col.DataType); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				col.MaxLength = &n
			}
		}
		info.Columns = append(info.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(info.Columns) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %s not found or has no columns", table)
	}
	return info, nil
}
