package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/oslony/internal/catalog"
	"github.com/Simplici0/oslony/internal/db"
	"github.com/Simplici0/oslony/internal/migrations"
	"github.com/Simplici0/oslony/internal/pricing"
	"github.com/Simplici0/oslony/internal/seed"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the price list workbooks into the catalog database",
	Long: `Read every category workbook in CATALOG_DIR and every system sheet of
PLEATED_WORKBOOK, then replace the catalog stored in DB_PATH with them in a
single transaction. Running it again on unchanged workbooks changes nothing.`,
	RunE: runImport,
}

var (
	importDB          string
	importSkipPleated bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDB, "db", "", "catalog database path (default DB_PATH)")
	importCmd.Flags().BoolVar(&importSkipPleated, "skip-pleated", false, "do not import the pleated workbook")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if importDB != "" {
		cfg.DBPath = importDB
	}

	database, err := db.Open(ctx, cfg.DBPath, db.Options{PingRetry: cfg.OpenRetry})
	if err != nil {
		return fmt.Errorf("open catalog database: %w", err)
	}
	defer database.Close()

	version, err := migrations.Up(ctx, database)
	if err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}

	rect, pleated := catalog.Workbooks(cfg, logger)
	keys, err := rect.Keys()
	if err != nil {
		return err
	}
	inputs := []seed.Input{{Line: pricing.LineRectangular, Source: rect, Keys: keys}}

	if !importSkipPleated {
		systems, err := pleated.Systems(ctx)
		if err != nil {
			return err
		}
		inputs = append(inputs, seed.Input{Line: pricing.LineCombinedWidth, Source: pleated, Keys: systems, Materials: true})
	}

	stats, err := seed.Run(ctx, database, inputs, logger.Named("import"))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d: %d inserted, %d updated, %d deleted\n",
		version, stats.Inserts, stats.Updates, stats.Deletes)
	return nil
}
