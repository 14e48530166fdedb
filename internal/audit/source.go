package audit

import (
	"context"
	"fmt"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/filestore"
	"github.com/koustreak/calcat/internal/logger"
)

// RunObject audits the extract file of table held in store.
func RunObject(ctx context.Context, cat *catalog.Catalog, store filestore.Store, cfg *filestore.Config, table string) (*Report, error) {
	if !cat.Has(table) {
		return nil, errs.Newf(errs.ErrKindUnknownTable, "table %q is not registered", table)
	}
	key := cfg.ExtractKey(table)

	obj, err := store.GetObject(ctx, cfg.Bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	rep, err := Run(ctx, cat, table, obj)
	if rep != nil {
		rep.Source = fmt.Sprintf("%s/%s", cfg.Bucket, key)
	}
	return rep, err
}

// RunQuery audits rows already loaded into db. limit caps the rows read;
// 0 reads the whole table.
func RunQuery(ctx context.Context, cat *catalog.Catalog, db database.DB, table string, limit int) (*Report, error) {
	t, err := cat.Get(table)
	if err != nil {
		return nil, err
	}

	query, args, err := database.ListQuery(t, db.Dialect(), limit)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	rep := &Report{Table: t.Name, Source: db.Dialect().String()}
	checkers := rep.bind(t, t.Columns())
	log := logger.FromContext(ctx).Component("audit")

	err = database.EachRow(rows, func(row map[string]any) error {
		rep.Rows++
		for _, c := range checkers {
			c.observeValue(cat, t.Name, row[c.spec.ColumnName()])
		}
		if rep.Rows%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return errs.Wrap(errs.ErrKindTimeout, table+": audit interrupted", err)
			}
			log.DebugWith("audit progress", map[string]any{"table": t.Name, "rows": rep.Rows})
		}
		return nil
	})
	if err != nil {
		return rep, err
	}

	log.InfoWith("audit finished", map[string]any{
		"table":      t.Name,
		"rows":       rep.Rows,
		"violations": rep.Violations(),
		"source":     rep.Source,
	})
	return rep, nil
}

// observeValue is observe for values scanned from a database.
func (c *checker) observeValue(cat *catalog.Catalog, table string, v any) {
	if s, ok := v.(string); ok {
		c.observe(cat, table, s)
		return
	}
	c.report.Checked++
	if cat.ValidateChoiceMembership(table, c.spec.Name, v) {
		return
	}
	c.violation(fmt.Sprint(v))
}
