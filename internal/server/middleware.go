package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/calcat/internal/errs"
)

// requestLogger logs one line per request and stores a request-scoped
// logger in the context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		log := s.log.With().Str("request_id", reqID).Logger()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(log.WithContext(r.Context())))

		log.InfoWith("request completed", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote":      r.RemoteAddr,
		})
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logFor(r).ErrorWith("failed to encode JSON response", err, nil)
	}
}

// writeError maps err's kind to a status code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logFor(r).ErrorWith("request failed", err, map[string]any{"path": r.URL.Path})
	}
	writeJSON(w, r, status, errorView{
		Error:     errs.KindOf(err).String(),
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindUnknownTable, errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput, errs.ErrKindInvalidKey, errs.ErrKindInvalidOrdering, errs.ErrKindInvalidFieldSpec:
		return http.StatusBadRequest
	case errs.ErrKindConnectionFailed:
		return http.StatusServiceUnavailable
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
