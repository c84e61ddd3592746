package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Simplici0/oslony/internal/pricing"
)

// SQLiteSource reads the tables of one product line from the catalog
// database populated by the importer.
type SQLiteSource struct {
	db     *sql.DB
	line   pricing.ProductLine
	logger *zap.Logger
}

func NewSQLiteSource(db *sql.DB, line pricing.ProductLine, logger *zap.Logger) *SQLiteSource {
	return &SQLiteSource{db: db, line: line, logger: logger}
}

func (s *SQLiteSource) LoadPriceTable(ctx context.Context, key string) (*pricing.PriceTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT height, width, price
		FROM price_cells
		WHERE line = ? AND catalog_key = ?
		ORDER BY height, width
	`, string(s.line), key)
	if err != nil {
		return nil, pricing.CatalogUnavailable(key, "query price cells", err)
	}
	defer rows.Close()

	var cells []pricing.Cell
	for rows.Next() {
		var (
			c   pricing.Cell
			raw string
		)
		if err := rows.Scan(&c.Height, &c.Width, &raw); err != nil {
			return nil, pricing.CatalogUnavailable(key, "scan price cell", err)
		}
		if c.Price, err = ParseAmount(raw); err != nil {
			return nil, pricing.MalformedCatalog(key, fmt.Sprintf("non-numeric price %q at %vx%v", raw, c.Width, c.Height), err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, pricing.CatalogUnavailable(key, "iterate price cells", err)
	}
	if len(cells) == 0 {
		return nil, pricing.CatalogUnavailable(key, "no price list for category", nil)
	}

	orNop(s.logger).Debug("price table loaded from database",
		zap.String("line", string(s.line)),
		zap.String("key", key),
		zap.Int("cells", len(cells)))
	return pricing.NewPriceTable(key, cells)
}

func (s *SQLiteSource) LoadMaterialTable(ctx context.Context, system string) (*pricing.MaterialTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, unit_price
		FROM materials
		WHERE line = ? AND system = ?
		ORDER BY position
	`, string(s.line), system)
	if err != nil {
		return nil, pricing.CatalogUnavailable(system, "query materials", err)
	}
	defer rows.Close()

	var materials []pricing.Material
	for rows.Next() {
		var (
			m   pricing.Material
			raw string
		)
		if err := rows.Scan(&m.Name, &raw); err != nil {
			return nil, pricing.CatalogUnavailable(system, "scan material", err)
		}
		if m.UnitPrice, err = ParseAmount(raw); err != nil {
			return nil, pricing.MalformedCatalog(system, fmt.Sprintf("non-numeric price %q for material %q", raw, m.Name), err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, pricing.CatalogUnavailable(system, "iterate materials", err)
	}
	if len(materials) == 0 {
		return nil, pricing.CatalogUnavailable(system, "no material list", nil)
	}

	return pricing.NewMaterialTable(system, materials)
}

// Keys lists the catalog keys stored for the line.
func (s *SQLiteSource) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT catalog_key
		FROM price_cells
		WHERE line = ?
		ORDER BY catalog_key
	`, string(s.line))
	if err != nil {
		return nil, fmt.Errorf("list catalog keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan catalog key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
