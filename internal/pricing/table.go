package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Cell is one priced coordinate of a grid as read from a catalog.
type Cell struct {
	Height float64
	Width  float64
	Price  decimal.Decimal
}

type coord struct {
	height float64
	width  float64
}

// PriceTable is an immutable, validated price grid for one category or
// system. Rows are heights, columns are widths.
type PriceTable struct {
	key     string
	widths  []float64
	heights []float64
	cells   map[coord]decimal.Decimal
}

// NewPriceTable validates cells and builds a table. Widths and heights are
// derived from the cells present, so rows and columns without any price
// never appear in the table.
func NewPriceTable(key string, cells []Cell) (*PriceTable, error) {
	t := &PriceTable{
		key:   key,
		cells: make(map[coord]decimal.Decimal, len(cells)),
	}

	widths := make(map[float64]struct{})
	heights := make(map[float64]struct{})
	for _, c := range cells {
		if !validDimension(c.Height) || !validDimension(c.Width) {
			return nil, MalformedCatalog(key, fmt.Sprintf("invalid grid coordinate %vx%v", c.Width, c.Height), nil)
		}
		if c.Price.IsNegative() {
			return nil, MalformedCatalog(key, fmt.Sprintf("negative price at %vx%v", c.Width, c.Height), nil)
		}
		at := coord{height: c.Height, width: c.Width}
		if _, dup := t.cells[at]; dup {
			return nil, MalformedCatalog(key, fmt.Sprintf("duplicate price at %vx%v", c.Width, c.Height), nil)
		}
		t.cells[at] = c.Price
		widths[c.Width] = struct{}{}
		heights[c.Height] = struct{}{}
	}

	if len(t.cells) == 0 {
		return nil, MalformedCatalog(key, "price table contains no valid data", nil)
	}

	t.widths = sortedKeys(widths)
	t.heights = sortedKeys(heights)
	return t, nil
}

// Key returns the category or system the table was loaded for.
func (t *PriceTable) Key() string { return t.key }

// Widths returns the tabulated widths in ascending order.
func (t *PriceTable) Widths() []float64 { return append([]float64(nil), t.widths...) }

// Heights returns the tabulated heights in ascending order.
func (t *PriceTable) Heights() []float64 { return append([]float64(nil), t.heights...) }

// Price returns the cell at (height, width).
func (t *PriceTable) Price(height, width float64) (decimal.Decimal, bool) {
	p, ok := t.cells[coord{height: height, width: width}]
	return p, ok
}

// Cells returns every cell ordered by height, then width.
func (t *PriceTable) Cells() []Cell {
	out := make([]Cell, 0, len(t.cells))
	for _, h := range t.heights {
		for _, w := range t.widths {
			if p, ok := t.cells[coord{height: h, width: w}]; ok {
				out = append(out, Cell{Height: h, Width: w, Price: p})
			}
		}
	}
	return out
}

func validDimension(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func sortedKeys(set map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
