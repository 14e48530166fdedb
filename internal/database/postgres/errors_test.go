package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/calcat/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"wrapped cancel", fmt.Errorf("acquire: %w", context.Canceled), errs.ErrKindTimeout},
		{"no rows", pgx.ErrNoRows, errs.ErrKindNotFound},
		{"connection class", &pgconn.PgError{Code: "08006", Message: "connection failure"}, errs.ErrKindConnectionFailed},
		{"auth class", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}, errs.ErrKindPermissionDenied},
		{"privilege", &pgconn.PgError{Code: "42501", Message: "permission denied"}, errs.ErrKindPermissionDenied},
		{"undefined table", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, errs.ErrKindNotFound},
		{"canceled by server", &pgconn.PgError{Code: "57014", Message: "canceling statement"}, errs.ErrKindTimeout},
		{"syntax", &pgconn.PgError{Code: "42601", Message: "syntax error"}, errs.ErrKindQueryFailed},
		{"network", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, mapError(nil, "op"))
}

func TestMapError_IncludesServerMessage(t *testing.T) {
	got := mapError(&pgconn.PgError{Code: "42601", Message: "syntax error at end of input"}, "query failed")
	assert.Contains(t, got.Error(), "query failed: syntax error at end of input")
}
