package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func cell(height, width float64, price int64) Cell {
	return Cell{Height: height, Width: width, Price: decimal.NewFromInt(price)}
}

func mustPriceTable(t *testing.T, key string, cells ...Cell) *PriceTable {
	t.Helper()
	table, err := NewPriceTable(key, cells)
	if err != nil {
		t.Fatalf("NewPriceTable(%s): %v", key, err)
	}
	return table
}

func mustMaterialTable(t *testing.T, key string, materials ...Material) *MaterialTable {
	t.Helper()
	table, err := NewMaterialTable(key, materials)
	if err != nil {
		t.Fatalf("NewMaterialTable(%s): %v", key, err)
	}
	return table
}

func TestNewPriceTable_SortsAxesAndSkipsEmptyRows(t *testing.T) {
	table := mustPriceTable(t, "drewno_25",
		cell(150, 200, 500),
		cell(100, 100, 300),
		cell(150, 100, 420),
	)

	widths := table.Widths()
	heights := table.Heights()
	if len(widths) != 2 || widths[0] != 100 || widths[1] != 200 {
		t.Fatalf("unexpected widths: %v", widths)
	}
	if len(heights) != 2 || heights[0] != 100 || heights[1] != 150 {
		t.Fatalf("unexpected heights: %v", heights)
	}

	if _, ok := table.Price(100, 200); ok {
		t.Fatalf("expected (100,200) to be absent")
	}
	if p, ok := table.Price(150, 200); !ok || !p.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("Price(150,200) = %v, %v", p, ok)
	}
	if got := len(table.Cells()); got != 3 {
		t.Fatalf("expected 3 cells, got %d", got)
	}
}

func TestNewPriceTable_RejectsInvalidData(t *testing.T) {
	cases := map[string][]Cell{
		"empty":          nil,
		"zero width":     {cell(100, 0, 10)},
		"negative price": {cell(100, 100, -1)},
		"duplicate":      {cell(100, 100, 10), cell(100, 100, 20)},
	}
	for name, cells := range cases {
		_, err := NewPriceTable("x", cells)
		if !IsKind(err, KindMalformedCatalog) {
			t.Fatalf("%s: expected MalformedCatalog, got %v", name, err)
		}
	}
}

func TestPriceTable_AxesAreCopies(t *testing.T) {
	table := mustPriceTable(t, "x", cell(100, 100, 1))
	widths := table.Widths()
	widths[0] = 999
	if table.Widths()[0] != 100 {
		t.Fatalf("table widths mutated through returned slice")
	}
}

func TestNewMaterialTable_NormalizesNames(t *testing.T) {
	table := mustMaterialTable(t, "1",
		Material{Name: " Screen ", UnitPrice: decimal.NewFromInt(50)},
		Material{Name: "blackout", UnitPrice: decimal.RequireFromString("72.5")},
	)

	p, ok := table.Lookup("SCREEN")
	if !ok || !p.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("Lookup(SCREEN) = %v, %v", p, ok)
	}
	if _, ok := table.Lookup("  Blackout"); !ok {
		t.Fatalf("expected case-insensitive lookup to succeed")
	}

	names := table.Names()
	if len(names) != 2 || names[0] != "Screen" || names[1] != "blackout" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestNewMaterialTable_RejectsDuplicatesAfterNormalization(t *testing.T) {
	_, err := NewMaterialTable("1", []Material{
		{Name: "screen", UnitPrice: decimal.NewFromInt(1)},
		{Name: "SCREEN ", UnitPrice: decimal.NewFromInt(2)},
	})
	if !IsKind(err, KindMalformedCatalog) {
		t.Fatalf("expected MalformedCatalog, got %v", err)
	}
}
