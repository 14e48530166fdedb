package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/calcat/internal/calaccess"
	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/database/sqlite"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/filestore"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 24)
	assert.True(t, strings.HasPrefix(lines[0], "TABLE"))
	assert.True(t, strings.HasPrefix(lines[1], "ACRONYMS_CD "))
	assert.Contains(t, out, "(FILER_ID_A,FILER_ID_B,ACTIVE_FLG,SESSION_ID,LINK_TYPE)")
}

func TestShow(t *testing.T) {
	out, err := execute(t, "show", "FILER_TO_FILER_TYPE_CD", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## FILER_TO_FILER_TYPE_CD\n")
	assert.Contains(t, out, "  - `16002`: REPUBLICAN\n")

	out, err = execute(t, "show", "ACRONYMS_CD")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TABLE ACRONYMS_CD"))

	_, err = execute(t, "show", "NOPE_CD")
	assert.True(t, errs.IsUnknownTable(err))

	_, err = execute(t, "show", "ACRONYMS_CD", "--format", "pdf")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDump_YAMLRoundTrip(t *testing.T) {
	out, err := execute(t, "dump", "--format", "yaml")
	require.NoError(t, err)

	tables, err := catalog.LoadYAML(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, tables, 23)
}

func TestDump_Files(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "dump", "-f", "markdown", "-d", filepath.Join(dir, "md"), "-t", "ACRONYMS_CD,NAMES_CD")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "md", "_overview.md"))
	assert.FileExists(t, filepath.Join(dir, "md", "NAMES_CD.md"))

	path := filepath.Join(dir, "catalog.txt")
	_, err = execute(t, "dump", "-o", path)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := catalog.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Len(t, decoded, 23)

	_, err = execute(t, "dump", "-o", path, "-d", dir)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestDDL(t *testing.T) {
	out, err := execute(t, "ddl", "ACRONYMS_CD", "NAMES_CD", "--dialect", "mysql")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE `ACRONYMS_CD`")
	assert.Contains(t, out, "CREATE TABLE `NAMES_CD`")

	out, err = execute(t, "ddl", "ACRONYMS_CD")
	require.NoError(t, err)
	assert.Contains(t, out, `CREATE TABLE "ACRONYMS_CD"`)

	_, err = execute(t, "ddl", "--dialect", "db2")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestCustomCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  - name: WIDGETS_CD
    unique_key: widget_id
    fields:
      - {name: widget_id, kind: Integer}
`), 0o600))

	out, err := execute(t, "list", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "WIDGETS_CD")
	assert.NotContains(t, out, "ACRONYMS_CD")

	_, err = execute(t, "list", "--catalog", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errs.IsInvalidInput(err))
}

// loadedDB creates a sqlite file holding the given declared tables.
func loadedDB(t *testing.T, tables ...string) string {
	t.Helper()
	cat, err := calaccess.NewCatalog()
	require.NoError(t, err)

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "calaccess.db")
	db, err := sqlite.New(ctx, database.DefaultConfig(database.DriverSQLite, path))
	require.NoError(t, err)
	defer db.Close()

	for _, name := range tables {
		tbl, err := cat.Get(name)
		require.NoError(t, err)
		require.NoError(t, db.Exec(ctx, database.DDL(tbl, database.DialectSQLite)))
	}
	return path
}

func TestDrift(t *testing.T) {
	path := loadedDB(t, "ACRONYMS_CD")

	out, err := execute(t, "drift", "--driver", "sqlite", "--dsn", path, "-t", "ACRONYMS_CD")
	require.NoError(t, err)
	assert.Equal(t, "no drift across 1 tables\n", out)

	out, err = execute(t, "drift", "--driver", "sqlite", "--dsn", path, "-t", "ACRONYMS_CD,NAMES_CD")
	assert.EqualError(t, err, "1 differences found")
	assert.Equal(t, "NAMES_CD: missing_table\n", out)
}

func TestAudit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FILER_TO_FILER_TYPE_CD.TSV")
	require.NoError(t, os.WriteFile(path, []byte("FILER_ID\tPARTY_CD\n1\t16002\n2\t12345\n3\t\n"), 0o600))

	out, err := execute(t, "audit", "-t", "FILER_TO_FILER_TYPE_CD", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "FILER_TO_FILER_TYPE_CD: 3 rows")
	assert.Contains(t, out, "  PARTY_CD: 1 of 3 outside choices [12345×1]\n")

	_, err = execute(t, "audit", "--file", path)
	assert.True(t, errs.IsInvalidInput(err), "--file needs exactly one table")
}

func TestAudit_FromDB(t *testing.T) {
	path := loadedDB(t, "ACRONYMS_CD")
	cfgPath := filepath.Join(t.TempDir(), "calcat.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  driver: sqlite\n  dsn: "+path+"\n"), 0o600))

	out, err := execute(t, "audit", "--config", cfgPath, "--from-db", "-t", "ACRONYMS_CD")
	require.NoError(t, err)
	assert.Contains(t, out, "ACRONYMS_CD: 0 rows from sqlite\n")
}

func TestAudit_NoSource(t *testing.T) {
	_, err := execute(t, "audit", "-t", "ACRONYMS_CD")
	assert.True(t, errs.IsInvalidInput(err), "no object store configured")
}

type listStore struct {
	filestore.Store
	keys []string
}

func (s *listStore) ListObjects(_ context.Context, _ string, _ filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	out := make([]filestore.ObjectInfo, len(s.keys))
	for i, k := range s.keys {
		out[i] = filestore.ObjectInfo{Key: k}
	}
	return out, nil
}

func TestPresentExtracts(t *testing.T) {
	cat, err := calaccess.NewCatalog()
	require.NoError(t, err)
	all, err := selectTables(cat, "")
	require.NoError(t, err)

	store := &listStore{keys: []string{
		"CalAccess/DATA/NAMES_CD.TSV",
		"CalAccess/DATA/ACRONYMS_CD.TSV",
		"CalAccess/DATA/RCPT_CD.TSV",
		"CalAccess/DATA/README.txt",
	}}
	got, err := presentExtracts(context.Background(), store, filestore.DefaultConfig("localhost:9000", "k", "s"), all)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "ACRONYMS_CD", got[0].Name)
	assert.Equal(t, "NAMES_CD", got[1].Name)
}
