package pricing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// CatalogSource supplies validated tables for one product line.
type CatalogSource interface {
	LoadPriceTable(ctx context.Context, key string) (*PriceTable, error)
	LoadMaterialTable(ctx context.Context, system string) (*MaterialTable, error)
}

// BatchRequest is an ordered list of items of one product line.
type BatchRequest struct {
	Line     ProductLine
	Category string
	Items    []LineItem
}

// LineResult is the outcome of one item. Exactly one of Quote and Err is meaningful.
type LineResult struct {
	Category string
	Item     LineItem
	Quote    Quote
	Err      error
}

// OK reports whether the item was priced.
func (r LineResult) OK() bool { return r.Err == nil }

// BatchResult holds one result per requested item, in request order.
type BatchResult struct {
	Line     ProductLine
	Category string
	Results  []LineResult
	Failed   bool
}

// Evaluator prices batches of line items against catalog sources.
type Evaluator struct {
	sources map[ProductLine]CatalogSource
	logger  *zap.Logger
}

// NewEvaluator creates an evaluator reading tables of each product line from its source.
func NewEvaluator(sources map[ProductLine]CatalogSource, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{sources: sources, logger: logger}
}

type loadedTables struct {
	tables Tables
	err    error
}

// Evaluate prices every item independently. Input errors are reported for
// the whole batch before any catalog access; all other failures stay in
// the failing item's slot.
func (e *Evaluator) Evaluate(ctx context.Context, req BatchRequest) (BatchResult, error) {
	pricer, ok := PricerFor(req.Line)
	if !ok {
		return BatchResult{}, InvalidInput("unknown product line %q", req.Line)
	}
	if len(req.Items) == 0 {
		return BatchResult{}, InvalidInput("no line items")
	}

	categories := make([]string, len(req.Items))
	for i, item := range req.Items {
		categories[i] = item.Category
		if categories[i] == "" {
			categories[i] = req.Category
		}
		if categories[i] == "" {
			return BatchResult{}, InvalidInput("item %d: category is required", i+1)
		}
		if err := pricer.Validate(item); err != nil {
			return BatchResult{}, itemError(i, err)
		}
	}

	res := BatchResult{
		Line:     req.Line,
		Category: req.Category,
		Results:  make([]LineResult, len(req.Items)),
	}

	loaded := make(map[string]loadedTables)
	for i, item := range req.Items {
		category := categories[i]
		lt, seen := loaded[category]
		if !seen {
			lt = e.load(ctx, req.Line, pricer, category)
			loaded[category] = lt
		}

		slot := LineResult{Category: category, Item: item}
		if lt.err != nil {
			slot.Err = lt.err
		} else {
			slot.Quote, slot.Err = pricer.Price(lt.tables, item)
		}
		if slot.Err != nil {
			res.Failed = true
			e.logger.Debug("line item not priced",
				zap.String("category", category),
				zap.Int("item", i+1),
				zap.Error(slot.Err))
		}
		res.Results[i] = slot
	}

	e.logger.Info("batch evaluated",
		zap.String("line", string(req.Line)),
		zap.String("category", req.Category),
		zap.Int("items", len(req.Items)),
		zap.Int("categories", len(loaded)),
		zap.Bool("failed", res.Failed))

	return res, nil
}

// Quote prices a single item.
func (e *Evaluator) Quote(ctx context.Context, line ProductLine, category string, item LineItem) (Quote, error) {
	res, err := e.Evaluate(ctx, BatchRequest{Line: line, Category: category, Items: []LineItem{item}})
	if err != nil {
		return Quote{}, err
	}
	r := res.Results[0]
	return r.Quote, r.Err
}

// Materials lists the material names known for a combined-width system.
func (e *Evaluator) Materials(ctx context.Context, system string) ([]string, error) {
	if system == "" {
		return nil, InvalidInput("system is required")
	}
	src, ok := e.sources[LineCombinedWidth]
	if !ok {
		return nil, CatalogUnavailable(system, "no catalog configured for "+string(LineCombinedWidth), nil)
	}
	materials, err := src.LoadMaterialTable(ctx, system)
	if err != nil {
		return nil, asCatalogError(system, err)
	}
	return materials.Names(), nil
}

func (e *Evaluator) load(ctx context.Context, line ProductLine, pricer Pricer, key string) loadedTables {
	src, ok := e.sources[line]
	if !ok {
		return loadedTables{err: CatalogUnavailable(key, "no catalog configured for "+string(line), nil)}
	}

	prices, err := src.LoadPriceTable(ctx, key)
	if err != nil {
		e.logger.Warn("price table unavailable", zap.String("key", key), zap.Error(err))
		return loadedTables{err: asCatalogError(key, err)}
	}

	t := Tables{Prices: prices}
	if pricer.NeedsMaterials() {
		materials, err := src.LoadMaterialTable(ctx, key)
		if err != nil {
			e.logger.Warn("material table unavailable", zap.String("key", key), zap.Error(err))
			return loadedTables{err: asCatalogError(key, err)}
		}
		t.Materials = materials
	}
	return loadedTables{tables: t}
}

func asCatalogError(key string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return CatalogUnavailable(key, "catalog read failed", err)
}

func itemError(i int, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Message: fmt.Sprintf("item %d: %s", i+1, e.Message), Key: e.Key, Cause: e.Cause}
	}
	return fmt.Errorf("item %d: %w", i+1, err)
}
