package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koustreak/calcat/internal/audit"
	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/database"
	"github.com/koustreak/calcat/internal/errs"
	"github.com/koustreak/calcat/internal/filestore"
	"github.com/koustreak/calcat/internal/formatter"
	"github.com/koustreak/calcat/internal/schema"
	"github.com/koustreak/calcat/internal/server"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared tables with their field count and natural key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tFIELDS\tKEY\tSOURCES")
			for t := range a.cat.Tables() {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", t.Name, len(t.Fields), t.UniqueKey, len(t.Provenance))
			}
			return tw.Flush()
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <table>",
		Short: "Print one table's declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.cat.Get(args[0])
			if err != nil {
				return err
			}
			f, err := formatter.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return f.Format([]catalog.TableSchema{t})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText, "Output format: text, markdown or yaml")
	return cmd
}

func (a *app) dumpCmd() *cobra.Command {
	var format, outputFile, outputDir, tables string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write every declaration in text, markdown or yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputDir != "" && outputFile != "" {
				return errs.New(errs.ErrKindInvalidInput, "cannot use both --output-dir and --output")
			}
			selected, err := selectTables(a.cat, tables)
			if err != nil {
				return err
			}

			if outputDir != "" {
				return formatter.NewMultiFileFormatter(outputDir, format).Format(selected)
			}

			var w io.Writer = cmd.OutOrStdout()
			if outputFile != "" {
				file, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() {
					if err := file.Close(); err != nil {
						a.log.ErrorWith("failed to close output file", err, nil)
					}
				}()
				w = file
			}

			f, err := formatter.New(format, w)
			if err != nil {
				return err
			}
			if err := f.Format(selected); err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatter.FormatText, "Output format: text, markdown or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Write one file per table into this directory")
	cmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	return cmd
}

func (a *app) ddlCmd() *cobra.Command {
	var dialect string
	cmd := &cobra.Command{
		Use:   "ddl [table...]",
		Short: "Print CREATE TABLE statements for declared tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dialect(dialect)
			if err != nil {
				return err
			}
			selected, err := selectTables(a.cat, strings.Join(args, ","))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, t := range selected {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, database.DDL(t, d))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dialect, "dialect", "", "SQL dialect: postgres, mysql or sqlite (default: configured driver, else postgres)")
	return cmd
}

// dialect resolves an explicit dialect name, falling back to the
// configured driver and then to postgres.
func (a *app) dialect(name string) (database.Dialect, error) {
	if name != "" {
		return database.ParseDialect(name)
	}
	if a.cfg.Database.Driver != "" {
		return a.cfg.Database.Driver.Dialect()
	}
	return database.DialectPostgres, nil
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog as a read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}

			opts := []server.Option{server.WithLogger(a.log)}
			if a.cfg.HasDatabase() {
				db, err := openDB(cmd.Context(), &a.cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				opts = append(opts, server.WithDatabase(db))
			}

			return server.New(a.cat, cfg, opts...).ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func (a *app) driftCmd() *cobra.Command {
	var driver, dsn, schemaName, tables string
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare a live database against the declarations",
		Long: `drift introspects a database holding loaded CAL-ACCESS tables and reports
every missing table, missing or extra column, and type, length or
nullability mismatch. It exits non-zero when any difference is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbCfg := a.cfg.Database
			if driver != "" {
				dbCfg.Driver = database.Driver(driver)
			}
			if dsn != "" {
				dbCfg.DSN = dsn
			}

			selected, err := selectTables(a.cat, tables)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := openDB(ctx, &dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if schemaName == "" {
				schemaName = schema.DefaultSchema(db.Dialect())
			}
			drift, err := schema.CheckCatalog(ctx, schema.NewReader(db), schemaName, slices.Values(selected))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(drift) == 0 {
				fmt.Fprintf(out, "no drift across %d tables\n", len(selected))
				return nil
			}
			for _, d := range drift {
				fmt.Fprintln(out, d.String())
			}
			return fmt.Errorf("%d differences found", len(drift))
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "Database driver: postgres, mysql or sqlite (overrides database.driver)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Connection string or sqlite path (overrides database.dsn)")
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema (default: public, the current database, or main)")
	cmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	return cmd
}

func (a *app) auditCmd() *cobra.Command {
	var (
		tables, file, bucket, prefix string
		fromDB                       bool
		limit                        int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Count values outside declared choices in raw data",
		Long: `audit reads raw CAL-ACCESS rows and counts, per field with declared
choices, the values that are not among them. Data is never rejected.

Rows come from a local TSV (--file), from the loaded database (--from-db),
or from the configured object store. Without --table, an object store audit
covers the declared tables whose extract is present under the prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selected, err := selectTables(a.cat, tables)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var run func(table string) (*audit.Report, error)
			switch {
			case file != "":
				if len(selected) != 1 {
					return errs.New(errs.ErrKindInvalidInput, "--file audits exactly one --table")
				}
				run = func(table string) (*audit.Report, error) {
					f, err := os.Open(file)
					if err != nil {
						return nil, errs.Wrap(errs.ErrKindNotFound, "open "+file, err)
					}
					defer f.Close()
					rep, err := audit.Run(ctx, a.cat, table, f)
					if rep != nil {
						rep.Source = file
					}
					return rep, err
				}

			case fromDB:
				db, err := openDB(ctx, &a.cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				run = func(table string) (*audit.Report, error) {
					return audit.RunQuery(ctx, a.cat, db, table, limit)
				}

			default:
				fsCfg := a.cfg.FileStore
				if bucket != "" {
					fsCfg.Bucket = bucket
				}
				if prefix != "" {
					fsCfg.Prefix = prefix
				}
				store, err := openStore(ctx, &fsCfg)
				if err != nil {
					return err
				}
				defer store.Close()
				if tables == "" {
					if selected, err = presentExtracts(ctx, store, &fsCfg, selected); err != nil {
						return err
					}
					a.log.InfoWith("auditing extracts", map[string]any{"bucket": fsCfg.Bucket, "tables": len(selected)})
				}
				run = func(table string) (*audit.Report, error) {
					return audit.RunObject(ctx, a.cat, store, &fsCfg, table)
				}
			}

			for _, t := range selected {
				rep, err := run(t.Name)
				if err != nil {
					return err
				}
				fmt.Fprint(out, rep.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&tables, "table", "t", "", "Tables to audit (comma-separated; default: all)")
	cmd.Flags().StringVar(&file, "file", "", "Local TSV extract of a single table")
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "Audit rows in the configured database")
	cmd.Flags().IntVar(&limit, "limit", 0, "Rows to read per table with --from-db (0: all)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket holding the extract (overrides filestore.bucket)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix of the extract (overrides filestore.prefix)")
	cmd.MarkFlagsMutuallyExclusive("file", "from-db")
	return cmd
}

// presentExtracts narrows tables to those with an extract under the
// configured prefix.
func presentExtracts(ctx context.Context, store filestore.Store, cfg *filestore.Config, tables []catalog.TableSchema) ([]catalog.TableSchema, error) {
	objs, err := filestore.ListExtracts(ctx, store, cfg)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(objs))
	for _, o := range objs {
		if name, ok := filestore.TableFromKey(o.Key); ok {
			present[name] = true
		}
	}
	return slices.DeleteFunc(tables, func(t catalog.TableSchema) bool { return !present[t.Name] }), nil
}
