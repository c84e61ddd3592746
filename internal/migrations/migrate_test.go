package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Simplici0/oslony/internal/db"
)

func TestUpAndReset(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "migrate.db"), db.Options{})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	version, err := Up(ctx, database)
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if version != 1 {
		t.Fatalf("version=%d, want 1", version)
	}

	// A second run has nothing to apply.
	if _, err := Up(ctx, database); err != nil {
		t.Fatalf("second Up: %v", err)
	}

	if _, err := database.Exec(`INSERT INTO price_cells (line, catalog_key, height, width, price) VALUES ('rectangular', 'x', 100, 100, '1')`); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}
	if _, err := database.Exec(`INSERT INTO price_cells (line, catalog_key, height, width, price) VALUES ('rectangular', 'x', 0, 100, '1')`); err == nil {
		t.Fatalf("expected check constraint to reject zero height")
	}

	if err := Reset(ctx, database); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := database.Exec(`SELECT 1 FROM price_cells`); err == nil {
		t.Fatalf("expected price_cells to be dropped")
	}
}
