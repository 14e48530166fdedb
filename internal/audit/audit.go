// Package audit measures how well raw CAL-ACCESS data agrees with the
// catalog's declared choices. It is advisory: values outside a field's
// choices are counted and sampled, never rejected.
package audit

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/logger"
)

// maxSamples bounds the distinct offending values kept per field.
const maxSamples = 10

// progressEvery is how often, in rows, Run checks ctx and logs progress.
const progressEvery = 100_000

// Report is the outcome of auditing one table.
type Report struct {
	Table  string
	Source string

	Rows      int64
	Bytes     int64
	Malformed int64 // rows whose cell count differs from the header

	// Missing lists declared columns absent from the data; Unknown lists
	// data columns the table does not declare.
	Missing []string
	Unknown []string

	Fields []FieldReport
}

// FieldReport covers one field with declared choices.
type FieldReport struct {
	Field      string
	Column     string
	Checked    int64
	Violations int64

	// Samples counts offending raw values, at most maxSamples of them.
	Samples map[string]int64
}

// Clean reports whether no field had a violation and no row was malformed.
func (r *Report) Clean() bool {
	if r.Malformed > 0 {
		return false
	}
	for _, f := range r.Fields {
		if f.Violations > 0 {
			return false
		}
	}
	return true
}

// Violations sums violations across fields.
func (r *Report) Violations() int64 {
	var n int64
	for _, f := range r.Fields {
		n += f.Violations
	}
	return n
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s rows", r.Table, humanize.Comma(r.Rows))
	if r.Bytes > 0 {
		fmt.Fprintf(&sb, " (%s)", humanize.Bytes(uint64(r.Bytes)))
	}
	if r.Source != "" {
		fmt.Fprintf(&sb, " from %s", r.Source)
	}
	sb.WriteString("\n")

	if r.Malformed > 0 {
		fmt.Fprintf(&sb, "  malformed rows: %s\n", humanize.Comma(r.Malformed))
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(&sb, "  missing columns: %s\n", strings.Join(r.Missing, ", "))
	}
	if len(r.Unknown) > 0 {
		fmt.Fprintf(&sb, "  undeclared columns: %s\n", strings.Join(r.Unknown, ", "))
	}

	for _, f := range r.Fields {
		if f.Violations == 0 {
			fmt.Fprintf(&sb, "  %s: ok (%s checked)\n", f.Column, humanize.Comma(f.Checked))
			continue
		}
		fmt.Fprintf(&sb, "  %s: %s of %s outside choices", f.Column,
			humanize.Comma(f.Violations), humanize.Comma(f.Checked))
		if s := f.sampleList(); s != "" {
			sb.WriteString(" [" + s + "]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f FieldReport) sampleList() string {
	keys := make([]string, 0, len(f.Samples))
	for k := range f.Samples {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if f.Samples[keys[i]] != f.Samples[keys[j]] {
			return f.Samples[keys[i]] > f.Samples[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		label := k
		if label == "" {
			label = `""`
		}
		parts[i] = fmt.Sprintf("%s×%s", label, humanize.Comma(f.Samples[k]))
	}
	return strings.Join(parts, ", ")
}

// checker tracks one choice-bearing field.
type checker struct {
	spec   catalog.FieldSpec
	index  int
	report *FieldReport
}

func (c *checker) observe(cat *catalog.Catalog, table string, raw string) {
	c.report.Checked++
	if raw == "" && c.spec.Kind == catalog.KindText && c.spec.Blankable {
		return
	}
	if cat.ValidateChoiceMembership(table, c.spec.Name, cellValue(c.spec, raw)) {
		return
	}
	c.violation(raw)
}

func (c *checker) violation(raw string) {
	c.report.Violations++
	if _, seen := c.report.Samples[raw]; seen || len(c.report.Samples) < maxSamples {
		c.report.Samples[raw]++
	}
}

// cellValue maps an extract cell to a choice candidate. Empty cells are
// null except in text fields, where they are the empty string.
func cellValue(f catalog.FieldSpec, raw string) any {
	if raw == "" && f.Kind != catalog.KindText {
		return nil
	}
	return raw
}

// Run audits the TSV in r against table. The first row must name the
// columns.
func Run(ctx context.Context, cat *catalog.Catalog, table string, r io.Reader) (*Report, error) {
	t, err := cat.Get(table)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).Component("audit")

	cr := &countingReader{r: r}
	tsv := csv.NewReader(cr)
	tsv.Comma = '\t'
	tsv.LazyQuotes = true
	tsv.FieldsPerRecord = -1
	tsv.ReuseRecord = true

	header, err := tsv.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "%s: extract is empty", table)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, table+": read header", err)
	}

	rep := &Report{Table: t.Name}
	checkers := rep.bind(t, header)

	for {
		rec, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rep, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("%s: row %d", table, rep.Rows+1), err)
		}
		rep.Rows++

		if len(rec) != len(header) {
			rep.Malformed++
			continue
		}
		for _, c := range checkers {
			c.observe(cat, t.Name, rec[c.index])
		}

		if rep.Rows%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return rep, errs.Wrap(errs.ErrKindTimeout, table+": audit interrupted", err)
			}
			log.DebugWith("audit progress", map[string]any{"table": t.Name, "rows": rep.Rows})
		}
	}
	rep.Bytes = cr.n

	log.InfoWith("audit finished", map[string]any{
		"table":      t.Name,
		"rows":       rep.Rows,
		"violations": rep.Violations(),
		"malformed":  rep.Malformed,
	})
	return rep, nil
}

// bind matches header cells to declared fields and returns checkers for
// fields with choices.
func (rep *Report) bind(t catalog.TableSchema, header []string) []*checker {
	seen := make(map[string]bool, len(header))
	var checkers []*checker

	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		f, ok := t.Field(strings.ToUpper(h))
		if !ok {
			f, ok = t.Field(h)
		}
		if !ok {
			rep.Unknown = append(rep.Unknown, h)
			continue
		}
		seen[f.Name] = true
		if len(f.Choices) == 0 {
			continue
		}
		rep.Fields = append(rep.Fields, FieldReport{
			Field:   f.Name,
			Column:  f.ColumnName(),
			Samples: make(map[string]int64),
		})
		checkers = append(checkers, &checker{spec: f, index: i})
	}
	// Pointers are taken after the slice stops growing.
	for i, c := range checkers {
		c.report = &rep.Fields[i]
	}

	for _, f := range t.Fields {
		if !seen[f.Name] {
			rep.Missing = append(rep.Missing, f.ColumnName())
		}
	}
	return checkers
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
