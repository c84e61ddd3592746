package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Simplici0/oslony/internal/config"
	"github.com/Simplici0/oslony/internal/pricing"
)

func TestOpen_XLSXWithCache(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "drewno_25.xlsx"), map[string][][]any{"Cennik": drewnoSheet()})

	cfg := config.Config{
		Backend:         config.BackendXLSX,
		CatalogDir:      dir,
		PleatedWorkbook: filepath.Join(dir, "cenniki_plis.xlsx"),
		CacheEnabled:    true,
		ReadTimeout:     time.Second,
	}
	cats, err := Open(cfg, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	src := cats.Sources[pricing.LineRectangular]
	first, err := src.LoadPriceTable(context.Background(), "drewno_25")
	if err != nil {
		t.Fatalf("LoadPriceTable: %v", err)
	}
	second, err := src.LoadPriceTable(context.Background(), "drewno_25")
	if err != nil {
		t.Fatalf("LoadPriceTable: %v", err)
	}
	if first != second {
		t.Fatalf("expected the cached table to be reused")
	}

	cats.Purge()
	third, err := src.LoadPriceTable(context.Background(), "drewno_25")
	if err != nil {
		t.Fatalf("LoadPriceTable: %v", err)
	}
	if third == first {
		t.Fatalf("expected a fresh table after purge")
	}

	if _, err := cats.Sources[pricing.LineCombinedWidth].LoadMaterialTable(context.Background(), "1"); !pricing.IsKind(err, pricing.KindCatalogUnavailable) {
		t.Fatalf("expected CatalogUnavailable for missing pleated workbook, got %v", err)
	}
}

func TestOpen_SQLiteNeedsDatabase(t *testing.T) {
	if _, err := Open(config.Config{Backend: config.BackendSQLite}, nil, nil); err == nil {
		t.Fatalf("expected error without a database")
	}

	database := openCatalogDB(t)
	cats, err := Open(config.Config{Backend: config.BackendSQLite, ReadTimeout: time.Second}, database, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(cats.Sources) != 2 {
		t.Fatalf("expected two sources, got %d", len(cats.Sources))
	}
}
