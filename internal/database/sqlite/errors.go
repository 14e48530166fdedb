package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/koustreak/calcat/internal/errs"
)

// mapError translates go-sqlite3 errors into *errs.Error.
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

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return errs.Wrap(classifyCode(sqliteErr), fmt.Sprintf("%s: %s", msg, sqliteErr.Error()), err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

func classifyCode(e sqlite3.Error) errs.ErrKind {
	switch e.Code {
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
		return errs.ErrKindConnectionFailed
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return errs.ErrKindPermissionDenied
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrInterrupt:
		return errs.ErrKindTimeout
	case sqlite3.ErrError:
		// SQLITE_ERROR also covers "no such table".
		if strings.Contains(e.Error(), "no such table") {
			return errs.ErrKindNotFound
		}
	}
	return errs.ErrKindQueryFailed
}
