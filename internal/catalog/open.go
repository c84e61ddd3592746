package catalog

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Simplici0/oslony/internal/config"
	"github.com/Simplici0/oslony/internal/pricing"
)

// Catalogs are the sources of every product line as configured.
type Catalogs struct {
	Sources map[pricing.ProductLine]pricing.CatalogSource
	caches  []*Cache
}

// Purge empties every cache so the next request re-reads the catalogs.
func (c *Catalogs) Purge() {
	for _, cache := range c.caches {
		cache.Purge()
	}
}

// Workbooks returns the spreadsheet sources named by cfg, whatever the
// configured backend. The importer reads from these.
func Workbooks(cfg config.Config, logger *zap.Logger) (*CategoryWorkbooks, *PleatedWorkbook) {
	logger = orNop(logger)
	rect := &CategoryWorkbooks{
		Dir:       cfg.CatalogDir,
		Exclude:   []string{cfg.PleatedWorkbookName()},
		OpenRetry: cfg.OpenRetry,
		Logger:    logger.Named("xlsx"),
	}
	pleated := &PleatedWorkbook{
		Path:      cfg.PleatedWorkbook,
		OpenRetry: cfg.OpenRetry,
		Logger:    logger.Named("xlsx"),
	}
	return rect, pleated
}

// Open builds the sources for cfg. db is only used by the sqlite backend.
// Each source is bounded by the read timeout and then cached when enabled.
func Open(cfg config.Config, db *sql.DB, logger *zap.Logger) (*Catalogs, error) {
	logger = orNop(logger)
	raw := make(map[pricing.ProductLine]pricing.CatalogSource, 2)

	switch cfg.Backend {
	case config.BackendXLSX:
		rect, pleated := Workbooks(cfg, logger)
		raw[pricing.LineRectangular] = rect
		raw[pricing.LineCombinedWidth] = pleated
	case config.BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite catalog backend needs a database")
		}
		for _, line := range []pricing.ProductLine{pricing.LineRectangular, pricing.LineCombinedWidth} {
			raw[line] = NewSQLiteSource(db, line, logger.Named("sqlite"))
		}
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.Backend)
	}

	c := &Catalogs{Sources: make(map[pricing.ProductLine]pricing.CatalogSource, len(raw))}
	for line, src := range raw {
		src = WithTimeout(src, cfg.ReadTimeout)
		if cfg.CacheEnabled {
			cache := NewCache(src, logger.Named("cache").With(zap.String("line", string(line))))
			c.caches = append(c.caches, cache)
			src = cache
		}
		c.Sources[line] = src
	}

	logger.Info("catalogs opened",
		zap.String("backend", cfg.Backend),
		zap.Bool("cache", cfg.CacheEnabled),
		zap.Duration("read_timeout", cfg.ReadTimeout))
	return c, nil
}
