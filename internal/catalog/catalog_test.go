package catalog

import (
	"bytes"
	"encoding/json"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/logger"
)

func tableT() TableSchema {
	return TableSchema{
		Name: "T",
		Fields: []FieldSpec{
			{Name: "id", Kind: KindInteger},
			{Name: "label", Kind: KindText, MaxLength: 10},
		},
		UniqueKey: SingleKey("id"),
	}
}

func pairTable() TableSchema {
	return TableSchema{
		Name: "PAIR",
		Fields: []FieldSpec{
			{Name: "a", Kind: KindInteger},
			{Name: "b", Kind: KindText, MaxLength: 5},
			{Name: "code", Kind: KindInteger, Nullable: true, Choices: Choices{
				{Value: IntChoice(1), Label: "A"},
				{Value: IntChoice(2), Label: "B"},
			}},
		},
		UniqueKey:       CompositeKey("b", "a"),
		DefaultOrdering: []OrderBy{{Field: "b", Direction: Desc}, {Field: "a"}},
	}
}

func TestEndToEnd(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(tableT()))

	got, err := c.Get("T")
	require.NoError(t, err)
	assert.Equal(t, "T", got.Name)
	assert.Equal(t, KeySingle, got.UniqueKey.Shape())
	assert.Equal(t, "id", got.UniqueKey.String())

	key, err := c.UniqueKeyOf("T")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, key.Fields())

	_, err = c.Get("MISSING")
	assert.True(t, errs.IsUnknownTable(err))
	assert.True(t, errs.IsNotFound(err))

	_, err = c.UniqueKeyOf("MISSING")
	assert.True(t, errs.IsUnknownTable(err))
}

func TestRegister_Defaults(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(tableT()))

	got, err := c.Get("T")
	require.NoError(t, err)
	assert.Equal(t, "T", got.DisplayName)
	assert.Equal(t, "T", got.DisplayNamePlural)
	assert.Equal(t, "ID", got.Fields[0].Column)
	assert.Equal(t, "LABEL", got.Fields[1].Column)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TableSchema)
		check  func(error) bool
	}{
		{"empty name", func(t *TableSchema) { t.Name = "" }, errs.IsInvalidFieldSpec},
		{"no fields", func(t *TableSchema) { t.Fields = nil; t.UniqueKey = NoKey() }, errs.IsInvalidFieldSpec},
		{"text without length", func(t *TableSchema) { t.Fields[1].MaxLength = 0 }, errs.IsInvalidFieldSpec},
		{"negative length", func(t *TableSchema) { t.Fields[1].MaxLength = -3 }, errs.IsInvalidFieldSpec},
		{"length on integer", func(t *TableSchema) { t.Fields[0].MaxLength = 4 }, errs.IsInvalidFieldSpec},
		{"unknown kind", func(t *TableSchema) { t.Fields[0].Kind = 0 }, errs.IsInvalidFieldSpec},
		{"duplicate field", func(t *TableSchema) { t.Fields[1].Name = "id" }, errs.IsInvalidFieldSpec},
		{"duplicate column", func(t *TableSchema) { t.Fields[1].Column = "ID" }, errs.IsInvalidFieldSpec},
		{"key unknown field", func(t *TableSchema) { t.UniqueKey = SingleKey("nope") }, errs.IsInvalidKey},
		{"key repeats field", func(t *TableSchema) { t.UniqueKey = CompositeKey("id", "ID") }, errs.IsInvalidKey},
		{"ordering unknown field", func(t *TableSchema) { t.DefaultOrdering = []OrderBy{{Field: "nope"}} }, errs.IsInvalidOrdering},
		{"ordering repeats field", func(t *TableSchema) {
			t.DefaultOrdering = []OrderBy{{Field: "id"}, {Field: "id", Direction: Desc}}
		}, errs.IsInvalidOrdering},
		{"bad provenance", func(t *TableSchema) { t.Provenance = []Provenance{{DocumentID: "d", StartPage: 5, EndPage: 2}} }, errs.IsInvalidFieldSpec},
		{"integer choice not numeric", func(t *TableSchema) {
			t.Fields[0].Choices = Choices{{Value: TextChoice("x"), Label: "X"}}
		}, errs.IsInvalidFieldSpec},
		{"duplicate choice", func(t *TableSchema) {
			t.Fields[0].Choices = Choices{{Value: IntChoice(1)}, {Value: IntChoice(1)}}
		}, errs.IsInvalidFieldSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tbl := tableT()
			tt.mutate(&tbl)

			err := c.Register(tbl)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected kind: %v", err)
			assert.Equal(t, 0, c.Len())
			assert.False(t, c.Has(tbl.Name))
		})
	}
}

func TestRegister_KeyByColumnName(t *testing.T) {
	c := New()
	tbl := tableT()
	tbl.UniqueKey = SingleKey("ID")
	require.NoError(t, c.Register(tbl))

	key, err := c.UniqueKeyOf("T")
	require.NoError(t, err)
	assert.Equal(t, "ID", key.String())
}

func TestRegister_DuplicateLeavesStateUnchanged(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(tableT()))

	other := pairTable()
	other.Name = "T"
	err := c.Register(other)
	assert.True(t, errs.IsDuplicateTable(err))

	assert.Equal(t, 1, c.Len())
	got, err := c.Get("T")
	require.NoError(t, err)
	assert.Len(t, got.Fields, 2)
	assert.Equal(t, "id", got.UniqueKey.String())
}

func TestRegister_Sealed(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(tableT()))
	c.Seal()
	assert.True(t, c.Sealed())

	err := c.Register(pairTable())
	assert.True(t, errs.IsSealed(err))
	assert.Equal(t, 1, c.Len())
}

func TestCompositeKeyOrderPreserved(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(pairTable()))

	key, err := c.UniqueKeyOf("PAIR")
	require.NoError(t, err)
	assert.Equal(t, KeyComposite, key.Shape())
	assert.Equal(t, []string{"b", "a"}, key.Fields())
	assert.Equal(t, "(b,a)", key.String())
}

func TestListTables(t *testing.T) {
	c := New()
	names := []string{"C", "A", "B"}
	for _, n := range names {
		tbl := tableT()
		tbl.Name = n
		require.NoError(t, c.Register(tbl))
	}
	// failed registration does not show up
	require.Error(t, c.Register(tableT().withName("A")))

	seq := c.ListTables()
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, names, first)
	assert.Equal(t, first, second)
	assert.Len(t, first, c.Len())

	for n := range c.ListTables() {
		assert.Equal(t, "C", n)
		break
	}
}

func (t TableSchema) withName(n string) TableSchema {
	t.Name = n
	return t
}

func TestListTables_SnapshotIgnoresLaterRegistrations(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(tableT()))

	var seen []string
	for n := range c.ListTables() {
		seen = append(seen, n)
		require.NoError(t, c.Register(tableT().withName(n+"2")))
	}
	assert.Equal(t, []string{"T"}, seen)
	assert.Equal(t, []string{"T", "T2"}, slices.Collect(c.ListTables()))
}

func TestTables(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(tableT()))
	require.NoError(t, c.Register(pairTable()))

	var got []string
	for tbl := range c.Tables() {
		got = append(got, tbl.Name)
	}
	assert.Equal(t, []string{"T", "PAIR"}, got)
}

func TestGetReturnsCopy(t *testing.T) {
	c := New()
	src := pairTable()
	require.NoError(t, c.Register(src))

	// mutating the source after registration has no effect
	src.Fields[2].Choices[0].Label = "changed"

	got, err := c.Get("PAIR")
	require.NoError(t, err)
	got.Fields[0].Name = "mutated"
	got.DefaultOrdering[0].Field = "mutated"

	again, err := c.Get("PAIR")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Fields[0].Name)
	assert.Equal(t, "b", again.DefaultOrdering[0].Field)
	assert.Equal(t, "A", again.Fields[2].Choices[0].Label)
}

func TestValidateChoiceMembership(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(tableT()))
	require.NoError(t, c.Register(pairTable()))

	tests := []struct {
		name  string
		table string
		field string
		value any
		want  bool
	}{
		{"no choices accepts anything", "T", "id", 987654, true},
		{"no choices accepts text", "T", "label", "whatever", true},
		{"member", "PAIR", "code", 1, true},
		{"member as string", "PAIR", "code", "2", true},
		{"member as int64", "PAIR", "code", int64(2), true},
		{"member as json number", "PAIR", "code", float64(1), true},
		{"member as float32", "PAIR", "code", float32(2), true},
		{"fractional float", "PAIR", "code", 1.5, false},
		{"float out of range", "PAIR", "code", 1e300, false},
		{"non member", "PAIR", "code", 3, false},
		{"null not declared", "PAIR", "code", nil, false},
		{"garbage string", "PAIR", "code", "two", false},
		{"unknown table", "NOPE", "code", 3, true},
		{"unknown field", "PAIR", "nope", 3, true},
		{"column name lookup", "PAIR", "CODE", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ValidateChoiceMembership(tt.table, tt.field, tt.value))
		})
	}
}

func TestValidateChoiceMembership_NullSentinel(t *testing.T) {
	c := New()
	tbl := pairTable()
	tbl.Fields[2].Choices = append(tbl.Fields[2].Choices, Choice{Value: NullChoice(), Label: "NONE"})
	require.NoError(t, c.Register(tbl))

	var missing *int
	assert.True(t, c.ValidateChoiceMembership("PAIR", "code", nil))
	assert.True(t, c.ValidateChoiceMembership("PAIR", "code", missing))
	assert.Equal(t, "NONE", c.ChoiceLabel("PAIR", "code", nil))
	assert.Equal(t, "B", c.ChoiceLabel("PAIR", "code", 2))
	assert.Equal(t, UnknownLabel, c.ChoiceLabel("PAIR", "code", 99))
	assert.Equal(t, UnknownLabel, c.ChoiceLabel("NOPE", "code", 1))
}

func TestNaturalKey(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(pairTable()))
	none := tableT()
	none.Name = "LOOSE"
	none.UniqueKey = NoKey()
	require.NoError(t, c.Register(none))

	key, ok, err := c.NaturalKey("PAIR", map[string]string{"A": "7", "B": "x", "CODE": "1"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x|7", key)

	key, ok, err = c.NaturalKey("PAIR", map[string]string{"a": "7", "b": "x"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x|7", key)

	_, ok, err = c.NaturalKey("LOOSE", map[string]string{"ID": "1"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = c.NaturalKey("PAIR", map[string]string{"A": "7"})
	assert.True(t, errs.IsInvalidInput(err))

	_, _, err = c.NaturalKey("NOPE", nil)
	assert.True(t, errs.IsUnknownTable(err))
}

func TestConcurrentReads(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(tableT()))
	require.NoError(t, c.Register(pairTable()))
	c.Seal()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = c.Get("PAIR")
				_ = slices.Collect(c.ListTables())
				_, _ = c.UniqueKeyOf("T")
				_ = c.ValidateChoiceMembership("PAIR", "code", j)
			}
		}()
	}
	wg.Wait()
}

func TestWithLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(&logger.Config{Level: "debug", Format: "json", Output: buf})

	c := New(WithLogger(log))
	require.NoError(t, c.Register(tableT()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "table registered", entry["message"])
	assert.Equal(t, "catalog", entry["component"])
	assert.Equal(t, "T", entry["table"])
}
