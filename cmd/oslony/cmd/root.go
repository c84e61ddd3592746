// Package cmd provides the CLI commands for oslony.
package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/oslony/internal/catalog"
	"github.com/Simplici0/oslony/internal/config"
	"github.com/Simplici0/oslony/internal/db"
	"github.com/Simplici0/oslony/internal/logging"
	"github.com/Simplici0/oslony/internal/pricing"
)

// version is set at build time with -ldflags "-X .../cmd.version=..."
var version = "dev"

var (
	verbose bool
	backend string

	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "oslony",
	Short: "Price window coverings from the shop price lists",
	Long: `oslony resolves prices of blinds, mosquito nets and pleated blinds from
the price list workbooks or the imported catalog database.

Examples:
  oslony quote --category drewno_25 --width 190 --height 140
  oslony quote --line combined_width --category 1 --width 90 --second-width 90 --height 90 --material screen
  oslony materials 1
  oslony import`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "catalog backend (xlsx, sqlite); overrides CATALOG_BACKEND")

	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Backend = backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	lc := cfg.Logging()
	lc.Development = false
	if verbose {
		lc.Level = "debug"
	} else if cfg.LogLevel == "" {
		lc.Level = "warn"
	}
	logger, err = logging.New(lc)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	return nil
}

// openEvaluator builds an evaluator over the configured catalogs. The
// returned close function releases the database, if one was opened.
func openEvaluator(cmd *cobra.Command) (*pricing.Evaluator, func(), error) {
	var database *sql.DB
	closeFn := func() {}
	if cfg.Backend == config.BackendSQLite {
		var err error
		database, err = db.Open(cmd.Context(), cfg.DBPath, db.Options{PingRetry: cfg.OpenRetry})
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog database: %w", err)
		}
		closeFn = func() { database.Close() }
	}

	cfg.CacheEnabled = false
	cats, err := catalog.Open(cfg, database, logger.Named("catalog"))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return pricing.NewEvaluator(cats.Sources, logger.Named("pricing")), closeFn, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "oslony version %s\n", version)
	},
}
