// Package catalog is the schema catalog: the single source of truth mapping
// raw CAL-ACCESS table names to their declared shape.
//
// A Catalog has two phases. During the build phase tables are added with
// Register, one call at a time, typically during process start. Seal ends
// the build phase; from then on every method is a read over immutable data
// and is safe for concurrent use.
//
// Usage:
//
//	cat := catalog.New()
//	if err := cat.Register(acronyms); err != nil { ... }
//	cat.Seal()
//
//	key, err := cat.UniqueKeyOf("ACRONYMS_CD")
package catalog

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/logger"
)

// NaturalKeySeparator joins key values in NaturalKey.
const NaturalKeySeparator = "|"

// Catalog holds registered table schemas in registration order.
type Catalog struct {
	mu     sync.RWMutex
	order  []string
	tables map[string]*TableSchema
	sealed bool
	log    *logger.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger routes registration events to l.
func WithLogger(l *logger.Logger) Option {
	return func(c *Catalog) { c.log = l.Component("catalog") }
}

// New returns an empty catalog in its build phase.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		tables: make(map[string]*TableSchema),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register validates t and adds a private copy of it. On error the catalog
// is left unchanged.
func (c *Catalog) Register(t TableSchema) error {
	if err := Validate(t); err != nil {
		c.log.ErrorWith("table rejected", err, map[string]any{"table": t.Name})
		return err
	}

	stored := t.Clone()
	if stored.DisplayName == "" {
		stored.DisplayName = stored.Name
	}
	if stored.DisplayNamePlural == "" {
		stored.DisplayNamePlural = stored.DisplayName
	}
	for i := range stored.Fields {
		stored.Fields[i].Column = stored.Fields[i].ColumnName()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return errs.Newf(errs.ErrKindSealed, "catalog is sealed; cannot register %q", t.Name)
	}
	if _, exists := c.tables[t.Name]; exists {
		return errs.Newf(errs.ErrKindDuplicateTable, "table %q is already registered", t.Name)
	}

	c.tables[t.Name] = &stored
	c.order = append(c.order, t.Name)

	c.log.DebugWith("table registered", map[string]any{
		"table":  t.Name,
		"fields": len(t.Fields),
		"key":    t.UniqueKey.String(),
	})
	return nil
}

// MustRegister is Register for static declarations; it panics on error.
func (c *Catalog) MustRegister(tables ...TableSchema) {
	for _, t := range tables {
		if err := c.Register(t); err != nil {
			panic(err)
		}
	}
}

// Seal ends the build phase.
func (c *Catalog) Seal() {
	c.mu.Lock()
	c.sealed = true
	n := len(c.order)
	c.mu.Unlock()
	c.log.InfoWith("catalog sealed", map[string]any{"tables": n})
}

// Sealed reports whether Seal has been called.
func (c *Catalog) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sealed
}

// Get returns a copy of the named table's schema.
func (c *Catalog) Get(name string) (TableSchema, error) {
	t, err := c.lookup(name)
	if err != nil {
		return TableSchema{}, err
	}
	return t.Clone(), nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	_, err := c.lookup(name)
	return err == nil
}

// ListTables yields registered table names in registration order. The
// sequence may be iterated any number of times.
func (c *Catalog) ListTables() iter.Seq[string] {
	return func(yield func(string) bool) {
		c.mu.RLock()
		names := c.order[:len(c.order):len(c.order)]
		c.mu.RUnlock()

		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

// Tables yields copies of every registered schema in registration order.
func (c *Catalog) Tables() iter.Seq[TableSchema] {
	return func(yield func(TableSchema) bool) {
		for name := range c.ListTables() {
			t, err := c.Get(name)
			if err != nil {
				return
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Len returns the number of registered tables.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// UniqueKeyOf returns the declared natural key of the named table.
func (c *Catalog) UniqueKeyOf(name string) (UniqueKey, error) {
	t, err := c.lookup(name)
	if err != nil {
		return UniqueKey{}, err
	}
	return CompositeKey(t.UniqueKey.fields...), nil
}

// ValidateChoiceMembership is an advisory check that value belongs to the
// field's enumerated choices. It never fails: unknown tables, unknown
// fields and fields without choices all report true.
//
// value may be nil, any integer type, an integral float, a string, or a
// ChoiceValue. Strings checked against integer fields are parsed first.
func (c *Catalog) ValidateChoiceMembership(table, field string, value any) bool {
	t, err := c.lookup(table)
	if err != nil {
		return true
	}
	f, ok := t.Field(field)
	if !ok || len(f.Choices) == 0 {
		return true
	}
	v, ok := NormalizeChoiceValue(f.Kind, value)
	if !ok {
		return false
	}
	return f.Choices.Contains(v)
}

// ChoiceLabel returns the label for value, or UnknownLabel.
func (c *Catalog) ChoiceLabel(table, field string, value any) string {
	t, err := c.lookup(table)
	if err != nil {
		return UnknownLabel
	}
	f, ok := t.Field(field)
	if !ok {
		return UnknownLabel
	}
	v, ok := NormalizeChoiceValue(f.Kind, value)
	if !ok {
		return UnknownLabel
	}
	return f.Choices.Label(v)
}

// NaturalKey joins row's key values in declared key order. row is keyed by
// physical column name, falling back to logical field name. ok is false for
// tables that declare no key.
func (c *Catalog) NaturalKey(table string, row map[string]string) (key string, ok bool, err error) {
	t, err := c.lookup(table)
	if err != nil {
		return "", false, err
	}
	if t.UniqueKey.Shape() == KeyNone {
		return "", false, nil
	}

	parts := make([]string, 0, t.UniqueKey.Len())
	for _, f := range t.KeyFields() {
		v, found := row[f.ColumnName()]
		if !found {
			v, found = row[f.Name]
		}
		if !found {
			return "", false, errs.Newf(errs.ErrKindInvalidInput, "%s: row lacks key column %q", table, f.ColumnName())
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, NaturalKeySeparator), true, nil
}

func (c *Catalog) lookup(name string) (*TableSchema, error) {
	c.mu.RLock()
	t, ok := c.tables[name]
	c.mu.RUnlock()
	if !ok {
		return nil, errs.Newf(errs.ErrKindUnknownTable, "table %q is not registered", name)
	}
	return t, nil
}

// NormalizeChoiceValue converts a Go value into the ChoiceValue it would be
// stored as in a field of the given kind.
func NormalizeChoiceValue(kind FieldKind, value any) (ChoiceValue, bool) {
	switch v := value.(type) {
	case nil:
		return NullChoice(), true
	case ChoiceValue:
		return v, true
	case *int:
		if v == nil {
			return NullChoice(), true
		}
		return IntChoice(int64(*v)), true
	case *int64:
		if v == nil {
			return NullChoice(), true
		}
		return IntChoice(*v), true
	case *string:
		if v == nil {
			return NullChoice(), true
		}
		return NormalizeChoiceValue(kind, *v)
	case int:
		return IntChoice(int64(v)), true
	case int8:
		return IntChoice(int64(v)), true
	case int16:
		return IntChoice(int64(v)), true
	case int32:
		return IntChoice(int64(v)), true
	case int64:
		return IntChoice(v), true
	case uint:
		return uintChoice(uint64(v))
	case uint8:
		return IntChoice(int64(v)), true
	case uint16:
		return IntChoice(int64(v)), true
	case uint32:
		return IntChoice(int64(v)), true
	case uint64:
		return uintChoice(v)
	case float32:
		return floatChoice(float64(v))
	case float64:
		return floatChoice(v)
	case string:
		if kind == KindInteger {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return ChoiceValue{}, false
			}
			return IntChoice(n), true
		}
		return TextChoice(v), true
	case fmt.Stringer:
		return NormalizeChoiceValue(kind, v.String())
	}
	return ChoiceValue{}, false
}

// floatChoice accepts integral floats such as JSON-decoded numbers.
func floatChoice(v float64) (ChoiceValue, bool) {
	if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
		return ChoiceValue{}, false
	}
	return IntChoice(int64(v)), true
}

func uintChoice(v uint64) (ChoiceValue, bool) {
	if v > math.MaxInt64 {
		return ChoiceValue{}, false
	}
	return IntChoice(int64(v)), true
}
