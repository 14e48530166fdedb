// Package sqlite implements database.DB on a SQLite file via mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // register "sqlite3" driver

	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
)

var _ database.DB = (*Driver)(nil)

// Driver is a SQLite implementation of database.DB. cfg.DSN is a file path
// or a file: URI.
type Driver struct {
	db *sql.DB
}

// New opens the database and pings it.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open database", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}

	d := &Driver{db: db}
	if err := d.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Dialect() database.Dialect { return database.DialectSQLite }

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqliteRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &sqliteRow{row: d.db.QueryRowContext(ctx, query, args...)}
}

// Exec runs a statement. Only the sqlite driver exposes it: it is how a
// scratch database gets its tables from DDL.
func (d *Driver) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err, "exec failed")
	}
	return nil
}

type sqliteRows struct {
	rows *sql.Rows
}

func (r *sqliteRows) Next() bool                 { return r.rows.Next() }
func (r *sqliteRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqliteRows) Close()                     { _ = r.rows.Close() }

func (r *sqliteRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

func (r *sqliteRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

type sqliteRow struct {
	row *sql.Row
}

func (r *sqliteRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}
