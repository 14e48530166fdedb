package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/calcat/internal/errs"
)

// normalizeDSN forces parseTime so DATE and DATETIME columns scan into
// time.Time.
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid DSN", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case 1044, 1045, 1142, 1143:
		return errs.ErrKindPermissionDenied
	case 1040, 1203:
		return errs.ErrKindConnectionFailed
	case 1049, 1146:
		return errs.ErrKindNotFound
	case 1317, 3024:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
