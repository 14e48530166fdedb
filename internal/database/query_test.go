package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/errs"
)

func filerLinks() catalog.TableSchema {
	return catalog.TableSchema{
		Name: "FILER_LINKS_CD",
		Fields: []catalog.FieldSpec{
			{Name: "filer_id_a", Column: "FILER_ID_A", Kind: catalog.KindInteger, Indexed: true},
			{Name: "filer_id_b", Column: "FILER_ID_B", Kind: catalog.KindInteger, Indexed: true},
			{Name: "effect_dt", Column: "EFFECT_DT", Kind: catalog.KindDate, Nullable: true},
			{Name: "link_desc", Column: "LINK_DESC", Kind: catalog.KindText, MaxLength: 255, Blankable: true},
			{Name: "updated", Column: "UPDATED_AT", Kind: catalog.KindDateTime, Nullable: true},
		},
		UniqueKey: catalog.CompositeKey("FILER_ID_A", "FILER_ID_B"),
		DefaultOrdering: []catalog.OrderBy{
			{Field: "effect_dt", Direction: catalog.Desc},
			{Field: "filer_id_a", Direction: catalog.Asc},
		},
	}
}

func TestSelectBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *SelectBuilder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "star",
			build:   func() *SelectBuilder { return Select("NAMES_CD", DialectPostgres) },
			wantSQL: `SELECT * FROM "NAMES_CD"`,
		},
		{
			name: "postgres placeholders",
			build: func() *SelectBuilder {
				return Select("FILERS_CD", DialectPostgres).
					Columns("FILER_ID").
					Where("FILER_ID", ">", 10).
					Where("STATUS", "like", "A%").
					OrderBy("FILER_ID", catalog.Desc).
					Limit(5).
					Offset(10)
			},
			wantSQL:  `SELECT "FILER_ID" FROM "FILERS_CD" WHERE "FILER_ID" > $1 AND "STATUS" LIKE $2 ORDER BY "FILER_ID" DESC LIMIT $3 OFFSET $4`,
			wantArgs: []any{10, "A%", 5, 10},
		},
		{
			name: "mysql backticks",
			build: func() *SelectBuilder {
				return Select("FILERS_CD", DialectMySQL).Columns("FILER_ID", "odd`name").Where("FILER_ID", "=", 1)
			},
			wantSQL:  "SELECT `FILER_ID`, `odd``name` FROM `FILERS_CD` WHERE `FILER_ID` = ?",
			wantArgs: []any{1},
		},
		{
			name:     "sqlite",
			build:    func() *SelectBuilder { return Select("FILERS_CD", DialectSQLite).Limit(3) },
			wantSQL:  `SELECT * FROM "FILERS_CD" LIMIT ?`,
			wantArgs: []any{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.build().Build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelectBuilder_RejectsOperator(t *testing.T) {
	_, _, err := Select("T", DialectPostgres).Where("a", "; DROP TABLE T; --", 1).Build()
	assert.True(t, errs.IsInvalidInput(err))
}

func TestListQuery(t *testing.T) {
	sql, args, err := ListQuery(filerLinks(), DialectPostgres, 100)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "FILER_ID_A", "FILER_ID_B", "EFFECT_DT", "LINK_DESC", "UPDATED_AT" FROM "FILER_LINKS_CD" ORDER BY "EFFECT_DT" DESC, "FILER_ID_A" ASC LIMIT $1`,
		sql)
	assert.Equal(t, []any{100}, args)

	sql, args, err = ListQuery(filerLinks(), DialectMySQL, 0)
	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, args)
}

func TestListQuery_UnknownOrderingField(t *testing.T) {
	tbl := filerLinks()
	tbl.DefaultOrdering = []catalog.OrderBy{{Field: "missing"}}
	_, _, err := ListQuery(tbl, DialectPostgres, 0)
	assert.True(t, errs.IsInvalidOrdering(err))
}

func TestDDL(t *testing.T) {
	want := `CREATE TABLE "FILER_LINKS_CD" (
    "FILER_ID_A" INTEGER NOT NULL,
    "FILER_ID_B" INTEGER NOT NULL,
    "EFFECT_DT" DATE,
    "LINK_DESC" VARCHAR(255) NOT NULL,
    "UPDATED_AT" TIMESTAMP
);
CREATE INDEX "filer_links_cd_filer_id_a_idx" ON "FILER_LINKS_CD" ("FILER_ID_A");
CREATE INDEX "filer_links_cd_filer_id_b_idx" ON "FILER_LINKS_CD" ("FILER_ID_B");
`
	assert.Equal(t, want, DDL(filerLinks(), DialectPostgres))

	mysql := DDL(filerLinks(), DialectMySQL)
	assert.Contains(t, mysql, "`UPDATED_AT` DATETIME")
	assert.Contains(t, mysql, "CREATE TABLE `FILER_LINKS_CD`")
}

func TestParseDialect(t *testing.T) {
	for _, name := range []string{"postgres", "mysql", "sqlite"} {
		d, err := ParseDialect(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.String())
	}
	_, err := ParseDialect("oracle")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig(DriverPostgres, "postgres://localhost/calaccess").Validate())

	cfg := DefaultConfig("oracle", "x")
	assert.True(t, errs.IsInvalidInput(cfg.Validate()))

	cfg = DefaultConfig(DriverSQLite, "")
	assert.True(t, errs.IsInvalidInput(cfg.Validate()))

	cfg = DefaultConfig(DriverMySQL, "u@/db")
	cfg.MinConns = 10
	assert.True(t, errs.IsInvalidInput(cfg.Validate()))
}

type fakeRows struct {
	cols []string
	data [][]any
	pos  int
	done bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, d := range dest {
		*(d.(*any)) = r.data[r.pos-1][i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Close()                     { r.done = true }
func (r *fakeRows) Err() error                 { return nil }

func TestScanRows(t *testing.T) {
	rows := &fakeRows{
		cols: []string{"ACRONYM", "STANDS_FOR"},
		data: [][]any{{[]byte("FPPC"), "Fair Political Practices Commission"}, {"SOS", nil}},
	}

	got, err := ScanRows(rows)
	require.NoError(t, err)
	assert.True(t, rows.done)
	assert.Equal(t, []map[string]any{
		{"ACRONYM": "FPPC", "STANDS_FOR": "Fair Political Practices Commission"},
		{"ACRONYM": "SOS", "STANDS_FOR": nil},
	}, got)

	empty, err := ScanRows(&fakeRows{cols: []string{"A"}})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
