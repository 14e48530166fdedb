package minio

import (
	"context"
	"errors"
	"net/http"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
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
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"no such bucket code only", miniogo.ErrorResponse{Code: "NoSuchBucket"}, errs.ErrKindNotFound},
		{"access denied", miniogo.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, errs.ErrKindPermissionDenied},
		{"unauthorized status", miniogo.ErrorResponse{StatusCode: http.StatusUnauthorized}, errs.ErrKindPermissionDenied},
		{"bad name", miniogo.ErrorResponse{Code: "InvalidBucketName", StatusCode: http.StatusBadRequest}, errs.ErrKindInvalidInput},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, errs.ErrKindTimeout},
		{"network", errors.New("dial tcp 127.0.0.1:9000: connect: connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, mapError(nil, "op"))
}
