package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/calcat/internal/catalog"
	"github.com/koustreak/calcat/internal/config"
	"github.com/koustreak/calcat/internal/logger"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	configPath  string
	catalogPath string
	logLevel    string

	cfg *config.Config
	log *logger.Logger
	cat *catalog.Catalog
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "calcat",
		Short: "Schema catalog for the CAL-ACCESS raw tables",
		Long: `calcat holds the declared structure of the raw CAL-ACCESS tables: fields,
natural keys, default ordering, enumerated choices and source pages. It can
print the catalog, emit DDL, serve it over HTTP, and check live databases
and raw extracts against it.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "Declaration file (.yaml or line format) replacing the built-in tables")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.dumpCmd(),
		a.ddlCmd(),
		a.serveCmd(),
		a.driftCmd(),
		a.auditCmd(),
	)
	return root
}

// setup loads configuration, the logger and the catalog.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.catalogPath != "" {
		cfg.CatalogFile = a.catalogPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	cfg.Log.Output = cmd.ErrOrStderr()
	a.log = logger.New(&cfg.Log)
	logger.SetGlobal(a.log)

	a.cat, err = loadCatalog(cfg.CatalogFile, a.log)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
