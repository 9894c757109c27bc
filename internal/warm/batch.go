package warm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages warmed at the same time.
const DefaultConcurrency = 8

// Warmer runs a Pipeline over many pages concurrently.
type Warmer struct {
	pipeline    *Pipeline
	concurrency int
	logger      *slog.Logger
}

// WarmerOption configures a Warmer.
type WarmerOption func(*Warmer)

// WithConcurrency sets the number of concurrent pages. Non-positive values are ignored.
func WithConcurrency(n int) WarmerOption {
	return func(w *Warmer) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithWarmerLogger sets the logger.
func WithWarmerLogger(logger *slog.Logger) WarmerOption {
	return func(w *Warmer) {
		w.logger = logger
	}
}

// NewWarmer creates a Warmer for pipeline.
func NewWarmer(pipeline *Pipeline, opts ...WarmerOption) *Warmer {
	w := &Warmer{
		pipeline:    pipeline,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// AllPages returns 0..count-1.
func AllPages(count int) []int {
	pages := make([]int, max(count, 0))
	for i := range pages {
		pages[i] = i
	}
	return pages
}

// Run warms pages and returns their results in the order of pages.
// A failed page does not stop the others; its error is in Result.Err.
// callback, if not nil, is called once per page as soon as the page is done,
// from the goroutine that warmed it.
// The returned error is non-nil only when ctx ended before every page was
// warmed; the results of pages that never started then have Err set to it.
func (w *Warmer) Run(ctx context.Context, pages []int, callback func(Result)) ([]Result, error) {
	w.logger.Info("warming pages", "pages", len(pages), "concurrency", w.concurrency)
	start := time.Now()

	results := make([]Result, len(pages))
	for i, p := range pages {
		results[i].Page = p
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for i, p := range pages {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r := Result{Page: p}
			if err := w.pipeline.Execute(gctx, &r); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				w.logger.Warn("failed to warm page", "page", p, "url", r.URL, "error", err)
			}

			mu.Lock()
			results[i] = r
			mu.Unlock()
			if callback != nil {
				callback(r)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		for i := range results {
			if results[i].Err == nil && len(results[i].Steps) == 0 {
				results[i].Err = err
			}
		}
	}

	w.logger.Info("warming finished", "pages", len(pages), "elapsed", time.Since(start))
	return results, err
}
