package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/Simplici0/oslony/internal/db"
	"github.com/Simplici0/oslony/internal/migrations"
	"github.com/Simplici0/oslony/internal/pricing"
)

type memSource struct {
	prices    map[string]*pricing.PriceTable
	materials map[string]*pricing.MaterialTable
}

func (m memSource) LoadPriceTable(_ context.Context, key string) (*pricing.PriceTable, error) {
	t, ok := m.prices[key]
	if !ok {
		return nil, pricing.CatalogUnavailable(key, "no price list for category", nil)
	}
	return t, nil
}

func (m memSource) LoadMaterialTable(_ context.Context, system string) (*pricing.MaterialTable, error) {
	t, ok := m.materials[system]
	if !ok {
		return nil, pricing.CatalogUnavailable(system, "no material list", nil)
	}
	return t, nil
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "seed-test.db"), db.Options{})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := migrations.Up(context.Background(), database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func priceTable(t *testing.T, key string, prices ...int64) *pricing.PriceTable {
	t.Helper()
	var cells []pricing.Cell
	for i, p := range prices {
		cells = append(cells, pricing.Cell{Height: 100, Width: float64(100 * (i + 1)), Price: decimal.NewFromInt(p)})
	}
	table, err := pricing.NewPriceTable(key, cells)
	if err != nil {
		t.Fatalf("NewPriceTable: %v", err)
	}
	return table
}

func materialTable(t *testing.T, key string, names ...string) *pricing.MaterialTable {
	t.Helper()
	var materials []pricing.Material
	for i, n := range names {
		materials = append(materials, pricing.Material{Name: n, UnitPrice: decimal.NewFromInt(int64(10 * (i + 1)))})
	}
	table, err := pricing.NewMaterialTable(key, materials)
	if err != nil {
		t.Fatalf("NewMaterialTable: %v", err)
	}
	return table
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	database := openTestDB(t)
	inputs := []Input{
		{
			Line:   pricing.LineRectangular,
			Source: memSource{prices: map[string]*pricing.PriceTable{"drewno_25": priceTable(t, "drewno_25", 300, 400)}},
			Keys:   []string{"drewno_25"},
		},
		{
			Line: pricing.LineCombinedWidth,
			Source: memSource{
				prices:    map[string]*pricing.PriceTable{"1": priceTable(t, "1", 80)},
				materials: map[string]*pricing.MaterialTable{"1": materialTable(t, "1", "Screen", "Blackout")},
			},
			Keys:      []string{"1"},
			Materials: true,
		},
	}

	for i := 0; i < 10; i++ {
		stats, err := Run(context.Background(), database, inputs, zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 5 {
				t.Fatalf("expected 5 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats != (Stats{}) {
			t.Fatalf("expected no changes in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM price_cells WHERE line = ?`, "rectangular", 2)
	assertCount(t, database, `SELECT COUNT(*) FROM materials WHERE line = ? AND system = ?`, []any{"combined_width", "1"}, 2)
}

func TestRunUpdatesAndDeletes(t *testing.T) {
	t.Parallel()

	database := openTestDB(t)
	src := memSource{prices: map[string]*pricing.PriceTable{
		"drewno_25":  priceTable(t, "drewno_25", 300, 400),
		"moskitiera": priceTable(t, "moskitiera", 150),
	}}
	in := Input{Line: pricing.LineRectangular, Source: src, Keys: []string{"drewno_25", "moskitiera"}}

	if _, err := Run(context.Background(), database, []Input{in}, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}

	src.prices["drewno_25"] = priceTable(t, "drewno_25", 310)
	in.Keys = []string{"drewno_25"}
	stats, err := Run(context.Background(), database, []Input{in}, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	// one price changed, one cell and the whole second category dropped
	if stats.Inserts != 0 || stats.Updates != 1 || stats.Deletes != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	var price string
	if err := database.QueryRow(`SELECT price FROM price_cells WHERE catalog_key = ? AND width = 100`, "drewno_25").Scan(&price); err != nil {
		t.Fatalf("query price: %v", err)
	}
	if price != "310" {
		t.Fatalf("price=%q, want 310", price)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM price_cells WHERE catalog_key = ?`, "moskitiera", 0)
}

func TestRunLeavesDatabaseUntouchedOnLoadFailure(t *testing.T) {
	t.Parallel()

	database := openTestDB(t)
	src := memSource{prices: map[string]*pricing.PriceTable{"drewno_25": priceTable(t, "drewno_25", 300)}}

	_, err := Run(context.Background(), database, []Input{{
		Line:   pricing.LineRectangular,
		Source: src,
		Keys:   []string{"drewno_25", "missing"},
	}}, nil)
	if !pricing.IsKind(err, pricing.KindCatalogUnavailable) {
		t.Fatalf("expected CatalogUnavailable, got %v", err)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM price_cells`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
