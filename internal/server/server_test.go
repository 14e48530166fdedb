package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/calcat/internal/calaccess"
	"github.com/koustreak/calcat/internal/config"
	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/logger"
)

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	cat, err := calaccess.NewCatalog()
	require.NoError(t, err)
	return New(cat, config.Default().Server, opts...).Handler()
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHealth(t *testing.T) {
	w, body := get(t, newTestServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 23, body["tables"])
	assert.NotContains(t, body, "database")
}

// stubDB answers Ping with err.
type stubDB struct {
	database.DB
	err error
}

func (s stubDB) Ping(context.Context) error { return s.err }
func (s stubDB) Dialect() database.Dialect { return database.DialectMySQL }

func TestHealth_Database(t *testing.T) {
	w, body := get(t, newTestServer(t, WithDatabase(stubDB{})), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mysql", body["database"])

	down := stubDB{err: errs.New(errs.ErrKindConnectionFailed, "refused")}
	w, body = get(t, newTestServer(t, WithDatabase(down)), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestListTables(t *testing.T) {
	w, body := get(t, newTestServer(t), "/tables")
	require.Equal(t, http.StatusOK, w.Code)

	tables := body["tables"].([]any)
	require.Len(t, tables, 23)
	first := tables[0].(map[string]any)
	assert.Equal(t, "ACRONYMS_CD", first["name"])
	assert.Equal(t, []any{"ACRONYM"}, first["unique_key"])
}

func TestGetTable(t *testing.T) {
	w, body := get(t, newTestServer(t), "/tables/ACRONYMS_CD")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "ACRONYMS_CD", body["name"])
	assert.Equal(t, "single", body["unique_key"].(map[string]any)["shape"])
	assert.NotEmpty(t, body["fields"])

	sources := body["sources"].([]any)
	require.Len(t, sources, 2)
	assert.Contains(t, sources[0].(map[string]any)["url"], "https://www.documentcloud.org/documents/")
}

func TestGetTable_Unknown(t *testing.T) {
	w, body := get(t, newTestServer(t), "/tables/NOPE_CD")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_table", body["error"])
	assert.NotEmpty(t, body["request_id"])
}

func TestGetKey(t *testing.T) {
	h := newTestServer(t)

	w, body := get(t, h, "/tables/FILER_LINKS_CD/key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FILER_LINKS_CD", body["table"])
	assert.Equal(t, "composite", body["shape"])
	assert.Equal(t, []any{"FILER_ID_A", "FILER_ID_B", "ACTIVE_FLG", "SESSION_ID", "LINK_TYPE"}, body["columns"])

	w, body = get(t, h, "/tables/NAMES_CD/key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", body["shape"])
	assert.Equal(t, []any{}, body["fields"])
}

func TestGetDDL(t *testing.T) {
	h := newTestServer(t)

	w, _ := get(t, h, "/tables/ACRONYMS_CD/ddl?dialect=mysql")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CREATE TABLE `ACRONYMS_CD`")

	w, _ = get(t, h, "/tables/ACRONYMS_CD/ddl")
	assert.Contains(t, w.Body.String(), `CREATE TABLE "ACRONYMS_CD"`)

	w, body := get(t, h, "/tables/ACRONYMS_CD/ddl?dialect=oracle")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", body["error"])
}

func TestChoices(t *testing.T) {
	h := newTestServer(t)
	const base = "/tables/FILER_TO_FILER_TYPE_CD/fields/party_cd/choices"

	tests := []struct {
		query     string
		member    bool
		label     string
		wantValue any
	}{
		{"?value=16002", true, "REPUBLICAN", float64(16002)},
		{"?value=99999", false, "UNKNOWN", float64(99999)},
		{"?value=abc", false, "UNKNOWN", "abc"},
		{"?null", true, "NONE", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w, body := get(t, h, base+tt.query)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.member, body["member"])
			assert.Equal(t, tt.label, body["label"])
			assert.Equal(t, tt.wantValue, body["value"])
		})
	}
}

func TestChoices_List(t *testing.T) {
	h := newTestServer(t)

	w, body := get(t, h, "/tables/FILER_TO_FILER_TYPE_CD/fields/PARTY_CD/choices")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "party_cd", body["field"])
	assert.Contains(t, body["choices"], map[string]any{"value": float64(16002), "label": "REPUBLICAN"})

	w, body = get(t, h, "/tables/ACRONYMS_CD/fields/acronym/choices")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["choices"])

	w, body = get(t, h, "/tables/ACRONYMS_CD/fields/nope/choices")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestUnknownRoute(t *testing.T) {
	w, body := get(t, newTestServer(t), "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no route for /nowhere", body["message"])
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &buf})

	get(t, newTestServer(t, WithLogger(log)), "/tables/ACRONYMS_CD")

	out := buf.String()
	assert.Contains(t, out, `"message":"request completed"`)
	assert.Contains(t, out, `"component":"server"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"path":"/tables/ACRONYMS_CD"`)
	assert.Contains(t, out, `"request_id":`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind errs.ErrKind
		want int
	}{
		{errs.ErrKindUnknownTable, http.StatusNotFound},
		{errs.ErrKindNotFound, http.StatusNotFound},
		{errs.ErrKindInvalidInput, http.StatusBadRequest},
		{errs.ErrKindConnectionFailed, http.StatusServiceUnavailable},
		{errs.ErrKindTimeout, http.StatusGatewayTimeout},
		{errs.ErrKindPermissionDenied, http.StatusForbidden},
		{errs.ErrKindQueryFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(errs.New(tt.kind, "x")))
		})
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	cat, err := calaccess.NewCatalog()
	require.NoError(t, err)

	cfg := config.Default().Server
	cfg.Addr = "127.0.0.1:0"
	srv := New(cat, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
