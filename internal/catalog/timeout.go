package catalog

import (
	"context"
	"time"

	"github.com/Simplici0/oslony/internal/pricing"
)

// WithTimeout bounds every load of src to d. A load that does not finish
// in time fails with CatalogUnavailable; the underlying read is left to
// finish in the background. A non-positive d returns src unchanged.
func WithTimeout(src pricing.CatalogSource, d time.Duration) pricing.CatalogSource {
	if d <= 0 {
		return src
	}
	return &timeoutSource{src: src, d: d}
}

type timeoutSource struct {
	src pricing.CatalogSource
	d   time.Duration
}

func (t *timeoutSource) LoadPriceTable(ctx context.Context, key string) (*pricing.PriceTable, error) {
	return bounded(ctx, t.d, key, func(ctx context.Context) (*pricing.PriceTable, error) {
		return t.src.LoadPriceTable(ctx, key)
	})
}

func (t *timeoutSource) LoadMaterialTable(ctx context.Context, system string) (*pricing.MaterialTable, error) {
	return bounded(ctx, t.d, system, func(ctx context.Context) (*pricing.MaterialTable, error) {
		return t.src.LoadMaterialTable(ctx, system)
	})
}

type outcome[T any] struct {
	v   T
	err error
}

func bounded[T any](ctx context.Context, d time.Duration, key string, load func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		v, err := load(ctx)
		done <- outcome[T]{v: v, err: err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		return zero, pricing.CatalogUnavailable(key, "catalog read timed out", ctx.Err())
	}
}
