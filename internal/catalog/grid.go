// Package catalog reads price and material tables from spreadsheets or a
// SQLite database and hands them to the pricing engine as validated tables.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/oslony/internal/pricing"
)

// ParseAmount parses a numeric cell. A comma decimal separator is accepted.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	return decimal.NewFromString(s)
}

func parseLabel(raw string) (float64, bool) {
	d, err := ParseAmount(raw)
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	return d.InexactFloat64(), true
}

type column struct {
	index int
	width float64
}

// ParseGrid builds a price table from sheet rows. The first row holds the
// widths, the first column the heights. Rows and columns whose label is
// not a positive number are skipped and blank cells are treated as absent.
func ParseGrid(key string, rows [][]string) (*pricing.PriceTable, error) {
	if len(rows) == 0 {
		return nil, pricing.MalformedCatalog(key, "price sheet is empty", nil)
	}

	var columns []column
	for j := 1; j < len(rows[0]); j++ {
		if w, ok := parseLabel(rows[0][j]); ok {
			columns = append(columns, column{index: j, width: w})
		}
	}
	if len(columns) == 0 {
		return nil, pricing.MalformedCatalog(key, "price sheet has no numeric width columns", nil)
	}

	var cells []pricing.Cell
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		height, ok := parseLabel(row[0])
		if !ok {
			continue
		}
		for _, col := range columns {
			if col.index >= len(row) || strings.TrimSpace(row[col.index]) == "" {
				continue
			}
			price, err := ParseAmount(row[col.index])
			if err != nil {
				return nil, pricing.MalformedCatalog(key, fmt.Sprintf("non-numeric price %q at %s", row[col.index], cellName(col.index, i)), err)
			}
			cells = append(cells, pricing.Cell{Height: height, Width: col.width, Price: price})
		}
	}

	return pricing.NewPriceTable(key, cells)
}

// ParseMaterials builds a material table from sheet rows: a header row,
// then the material name in the first column and its unit price in the second.
func ParseMaterials(key string, rows [][]string) (*pricing.MaterialTable, error) {
	var materials []pricing.Material
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			return nil, pricing.MalformedCatalog(key, fmt.Sprintf("missing price for material %q", row[0]), nil)
		}
		price, err := ParseAmount(row[1])
		if err != nil {
			return nil, pricing.MalformedCatalog(key, fmt.Sprintf("non-numeric price %q at %s", row[1], cellName(1, i)), err)
		}
		materials = append(materials, pricing.Material{Name: row[0], UnitPrice: price})
	}

	return pricing.NewMaterialTable(key, materials)
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", row+1, col+1)
	}
	return name
}
