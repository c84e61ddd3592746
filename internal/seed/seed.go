// Package seed imports catalog tables into the SQLite catalog database.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Simplici0/oslony/internal/pricing"
)

// Input names the tables of one product line to import.
type Input struct {
	Line   pricing.ProductLine
	Source pricing.CatalogSource
	Keys   []string

	// Materials also imports the material table of every key.
	Materials bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
	Deletes int
}

type coord struct {
	height, width float64
}

type lineTables struct {
	line      pricing.ProductLine
	prices    map[string]*pricing.PriceTable
	materials map[string]*pricing.MaterialTable
}

// Run replaces the stored catalog of every input line with the tables read
// from its source, in one transaction. Unchanged rows are left alone, so
// running it twice on the same catalogs reports no changes.
func Run(ctx context.Context, db *sql.DB, inputs []Input, logger *zap.Logger) (Stats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Read everything first: a broken workbook must not leave a half import.
	loaded := make([]lineTables, 0, len(inputs))
	for _, in := range inputs {
		lt := lineTables{
			line:      in.Line,
			prices:    make(map[string]*pricing.PriceTable, len(in.Keys)),
			materials: make(map[string]*pricing.MaterialTable),
		}
		for _, key := range in.Keys {
			t, err := in.Source.LoadPriceTable(ctx, key)
			if err != nil {
				return Stats{}, fmt.Errorf("load %s price table %q: %w", in.Line, key, err)
			}
			lt.prices[key] = t

			if in.Materials {
				m, err := in.Source.LoadMaterialTable(ctx, key)
				if err != nil {
					return Stats{}, fmt.Errorf("load %s material table %q: %w", in.Line, key, err)
				}
				lt.materials[key] = m
			}
		}
		loaded = append(loaded, lt)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, lt := range loaded {
		if err := syncLine(ctx, tx, lt, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	logger.Info("catalog imported",
		zap.Int("lines", len(loaded)),
		zap.Int("inserts", stats.Inserts),
		zap.Int("updates", stats.Updates),
		zap.Int("deletes", stats.Deletes))
	return stats, nil
}

func syncLine(ctx context.Context, tx *sql.Tx, lt lineTables, stats *Stats) error {
	for _, key := range sortedKeys(lt.prices) {
		if err := syncPriceTable(ctx, tx, lt.line, lt.prices[key], stats); err != nil {
			return err
		}
	}
	if err := dropStaleKeys(ctx, tx, lt.line, lt.prices, stats); err != nil {
		return err
	}

	for _, key := range sortedKeys(lt.materials) {
		if err := syncMaterialTable(ctx, tx, lt.line, lt.materials[key], stats); err != nil {
			return err
		}
	}
	return nil
}

func syncPriceTable(ctx context.Context, tx *sql.Tx, line pricing.ProductLine, t *pricing.PriceTable, stats *Stats) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT height, width, price
		FROM price_cells
		WHERE line = ? AND catalog_key = ?
	`, string(line), t.Key())
	if err != nil {
		return fmt.Errorf("query stored price cells: %w", err)
	}
	stored := make(map[coord]string)
	for rows.Next() {
		var (
			c     coord
			price string
		)
		if err := rows.Scan(&c.height, &c.width, &price); err != nil {
			rows.Close()
			return fmt.Errorf("scan stored price cell: %w", err)
		}
		stored[c] = price
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close stored price cells: %w", err)
	}

	for _, cell := range t.Cells() {
		c := coord{height: cell.Height, width: cell.Width}
		price := cell.Price.String()
		old, exists := stored[c]
		delete(stored, c)

		switch {
		case !exists:
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO price_cells (line, catalog_key, height, width, price)
				VALUES (?, ?, ?, ?, ?)
			`, string(line), t.Key(), c.height, c.width, price); err != nil {
				return fmt.Errorf("insert price cell: %w", err)
			}
			stats.Inserts++
		case old != price:
			if _, err := tx.ExecContext(ctx, `
				UPDATE price_cells SET price = ?
				WHERE line = ? AND catalog_key = ? AND height = ? AND width = ?
			`, price, string(line), t.Key(), c.height, c.width); err != nil {
				return fmt.Errorf("update price cell: %w", err)
			}
			stats.Updates++
		}
	}

	for c := range stored {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM price_cells
			WHERE line = ? AND catalog_key = ? AND height = ? AND width = ?
		`, string(line), t.Key(), c.height, c.width); err != nil {
			return fmt.Errorf("delete stale price cell: %w", err)
		}
		stats.Deletes++
	}
	return nil
}

func dropStaleKeys(ctx context.Context, tx *sql.Tx, line pricing.ProductLine, keep map[string]*pricing.PriceTable, stats *Stats) error {
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT catalog_key FROM price_cells WHERE line = ?`, string(line))
	if err != nil {
		return fmt.Errorf("query stored catalog keys: %w", err)
	}
	var stale []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return fmt.Errorf("scan stored catalog key: %w", err)
		}
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close stored catalog keys: %w", err)
	}

	for _, key := range stale {
		for _, q := range []string{
			`DELETE FROM price_cells WHERE line = ? AND catalog_key = ?`,
			`DELETE FROM materials WHERE line = ? AND system = ?`,
		} {
			res, err := tx.ExecContext(ctx, q, string(line), key)
			if err != nil {
				return fmt.Errorf("delete stale catalog %q: %w", key, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("count deleted rows: %w", err)
			}
			stats.Deletes += int(n)
		}
	}
	return nil
}

type storedMaterial struct {
	name     string
	price    string
	position int
}

func syncMaterialTable(ctx context.Context, tx *sql.Tx, line pricing.ProductLine, t *pricing.MaterialTable, stats *Stats) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT material_id, name, unit_price, position
		FROM materials
		WHERE line = ? AND system = ?
	`, string(line), t.Key())
	if err != nil {
		return fmt.Errorf("query stored materials: %w", err)
	}
	stored := make(map[string]storedMaterial)
	for rows.Next() {
		var (
			id string
			m  storedMaterial
		)
		if err := rows.Scan(&id, &m.name, &m.price, &m.position); err != nil {
			rows.Close()
			return fmt.Errorf("scan stored material: %w", err)
		}
		stored[id] = m
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close stored materials: %w", err)
	}

	for i, m := range t.Materials() {
		id := pricing.NormalizeMaterial(m.Name)
		want := storedMaterial{name: m.Name, price: m.UnitPrice.String(), position: i}
		old, exists := stored[id]
		delete(stored, id)

		switch {
		case !exists:
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO materials (line, system, material_id, name, unit_price, position)
				VALUES (?, ?, ?, ?, ?, ?)
			`, string(line), t.Key(), id, want.name, want.price, want.position); err != nil {
				return fmt.Errorf("insert material: %w", err)
			}
			stats.Inserts++
		case old != want:
			if _, err := tx.ExecContext(ctx, `
				UPDATE materials SET name = ?, unit_price = ?, position = ?
				WHERE line = ? AND system = ? AND material_id = ?
			`, want.name, want.price, want.position, string(line), t.Key(), id); err != nil {
				return fmt.Errorf("update material: %w", err)
			}
			stats.Updates++
		}
	}

	for id := range stored {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM materials WHERE line = ? AND system = ? AND material_id = ?
		`, string(line), t.Key(), id); err != nil {
			return fmt.Errorf("delete stale material: %w", err)
		}
		stats.Deletes++
	}
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
