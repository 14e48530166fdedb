package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/koustreak/calcat/internal/calaccess"
	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/database/mysql"
	"github.com/koustreak/calcat/internal/database/postgres"
	"github.com/koustreak/calcat/internal/database/sqlite"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/filestore"
	"github.com/koustreak/calcat/internal/filestore/minio"
	"github.com/koustreak/calcat/internal/logger"
)

// loadCatalog builds the sealed catalog: the built-in CAL-ACCESS tables, or
// the declarations in path when it is set.
func loadCatalog(path string, log *logger.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return calaccess.NewCatalog(catalog.WithLogger(log))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "open catalog "+path, err)
	}
	defer f.Close()

	var tables []catalog.TableSchema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		tables, err = catalog.LoadYAML(f)
	default:
		tables, err = catalog.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cat := catalog.New(catalog.WithLogger(log))
	if err := catalog.RegisterAll(cat, tables); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cat.Seal()
	log.InfoWith("catalog loaded", map[string]any{"path": path, "tables": cat.Len()})
	return cat, nil
}

// selectTables resolves a comma-separated list, or every table when names
// is empty, in catalog order.
func selectTables(cat *catalog.Catalog, names string) ([]catalog.TableSchema, error) {
	if strings.TrimSpace(names) == "" {
		var out []catalog.TableSchema
		for t := range cat.Tables() {
			out = append(out, t)
		}
		return out, nil
	}

	var out []catalog.TableSchema
	for _, name := range strings.Split(names, ",") {
		t, err := cat.Get(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// openDB connects to the configured database.
func openDB(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case database.DriverPostgres:
		db, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	case database.DriverMySQL:
		db, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		db, err := sqlite.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

// openStore connects to the configured object store.
func openStore(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := minio.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}
