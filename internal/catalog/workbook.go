package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Simplici0/oslony/internal/pricing"
)

const (
	priceSheet        = "Cennik"
	materialSheet     = "Material"
	systemSheetPrefix = "System_"
	workbookExt       = ".xlsx"
)

// CategoryWorkbooks reads one workbook per rectangular category from a
// directory: <dir>/<category>.xlsx with the grid on sheet "Cennik".
type CategoryWorkbooks struct {
	Dir string

	// Exclude lists workbook file names that are not category price lists.
	Exclude []string

	// OpenRetry bounds how long a workbook that fails to open is retried.
	OpenRetry time.Duration

	Logger *zap.Logger
}

func (c *CategoryWorkbooks) LoadPriceTable(ctx context.Context, category string) (*pricing.PriceTable, error) {
	if !validKey(category) {
		return nil, pricing.CatalogUnavailable(category, "no price list for category", nil)
	}

	path := filepath.Join(c.Dir, category+workbookExt)
	rows, err := readSheet(ctx, path, category, priceSheet, c.OpenRetry)
	if err != nil {
		return nil, err
	}

	table, err := ParseGrid(category, rows)
	if err != nil {
		return nil, err
	}
	orNop(c.Logger).Debug("price table loaded",
		zap.String("path", path),
		zap.Int("widths", len(table.Widths())),
		zap.Int("heights", len(table.Heights())))
	return table, nil
}

func (c *CategoryWorkbooks) LoadMaterialTable(_ context.Context, system string) (*pricing.MaterialTable, error) {
	return nil, pricing.CatalogUnavailable(system, "rectangular price lists have no material table", nil)
}

// Keys lists the categories present in the directory.
func (c *CategoryWorkbooks) Keys() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.Dir, "*"+workbookExt))
	if err != nil {
		return nil, fmt.Errorf("list workbooks: %w", err)
	}

	excluded := make(map[string]bool, len(c.Exclude))
	for _, name := range c.Exclude {
		excluded[filepath.Base(name)] = true
	}

	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		// Office lock files
		if strings.HasPrefix(name, "~$") || excluded[name] {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, workbookExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// PleatedWorkbook reads the combined-width line from a single workbook with
// one "System_<system>" grid sheet per system and a shared "Material" sheet.
type PleatedWorkbook struct {
	Path      string
	OpenRetry time.Duration
	Logger    *zap.Logger
}

func (p *PleatedWorkbook) LoadPriceTable(ctx context.Context, system string) (*pricing.PriceTable, error) {
	rows, err := readSheet(ctx, p.Path, system, systemSheetPrefix+system, p.OpenRetry)
	if err != nil {
		return nil, err
	}

	table, err := ParseGrid(system, rows)
	if err != nil {
		return nil, err
	}
	orNop(p.Logger).Debug("system price table loaded",
		zap.String("system", system),
		zap.Int("widths", len(table.Widths())),
		zap.Int("heights", len(table.Heights())))
	return table, nil
}

// LoadMaterialTable returns the shared material list for a system that has
// a price sheet in the workbook.
func (p *PleatedWorkbook) LoadMaterialTable(ctx context.Context, system string) (*pricing.MaterialTable, error) {
	f, err := openWorkbook(ctx, p.Path, system, p.OpenRetry)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, ok := findSheet(f, systemSheetPrefix+system); !ok {
		return nil, pricing.CatalogUnavailable(system, "no such system", nil)
	}
	rows, err := sheetRows(f, p.Path, system, materialSheet)
	if err != nil {
		return nil, err
	}
	return ParseMaterials(system, rows)
}

// Systems lists the systems that have a price sheet.
func (p *PleatedWorkbook) Systems(ctx context.Context) ([]string, error) {
	f, err := openWorkbook(ctx, p.Path, filepath.Base(p.Path), p.OpenRetry)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var systems []string
	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, systemSheetPrefix) && len(name) > len(systemSheetPrefix) {
			systems = append(systems, strings.TrimPrefix(name, systemSheetPrefix))
		}
	}
	sort.Strings(systems)
	return systems, nil
}

func readSheet(ctx context.Context, path, key, sheet string, retry time.Duration) ([][]string, error) {
	f, err := openWorkbook(ctx, path, key, retry)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sheetRows(f, path, key, sheet)
}

func sheetRows(f *excelize.File, path, key, sheet string) ([][]string, error) {
	name, ok := findSheet(f, sheet)
	if !ok {
		return nil, pricing.CatalogUnavailable(key, fmt.Sprintf("sheet %q missing in %s", sheet, filepath.Base(path)), nil)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, pricing.CatalogUnavailable(key, fmt.Sprintf("read sheet %q", sheet), err)
	}
	return rows, nil
}

func openWorkbook(ctx context.Context, path, key string, retry time.Duration) (*excelize.File, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, pricing.CatalogUnavailable(key, "price list file not found", nil)
	}

	// A workbook being replaced out-of-band can be briefly unreadable.
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if retry > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 50 * time.Millisecond
		exp.MaxElapsedTime = retry
		policy = exp
	}

	var f *excelize.File
	err := backoff.Retry(func() error {
		var err error
		f, err = excelize.OpenFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, pricing.CatalogUnavailable(key, "price list file unreadable", err)
	}
	return f, nil
}

func findSheet(f *excelize.File, sheet string) (string, bool) {
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, sheet) {
			return name, true
		}
	}
	return "", false
}

func validKey(key string) bool {
	return key != "" && key != "." && key != ".." && !strings.ContainsAny(key, `/\`)
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
