// Package crawler orchestrates the two crawl flows: the paginated news
// listing and the forum update thread. One logical worker runs at a time;
// items are processed strictly in listing order because the incremental
// stop heuristic depends on it, and the browser tab is shared state.
package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gamewatch/gamewatch/internal/annotate"
	"github.com/gamewatch/gamewatch/internal/config"
	"github.com/gamewatch/gamewatch/internal/fetcher"
	"github.com/gamewatch/gamewatch/internal/observability"
	"github.com/gamewatch/gamewatch/internal/schedule"
	"github.com/gamewatch/gamewatch/internal/types"
)

// ModeIncremental stops the crawl at the first already-stored item; full
// reprocesses everything and lets the store's dedup absorb duplicates.
const (
	ModeIncremental = "incremental"
	ModeFull        = "full"
)

// Store is the persistence contract the crawl needs.
type Store interface {
	Insert(ctx context.Context, collection string, item *types.NewsItem) error
	ExistsByURL(ctx context.Context, collection, url string) (bool, error)
	ExistsByThread(ctx context.Context, collection, threadID string) (bool, error)
	Clear(ctx context.Context, collection string) error
}

// Annotator enriches an item with a summary and character names. It never
// fails; degraded results are marked as such.
type Annotator interface {
	Annotate(ctx context.Context, title, content string, category types.Category) annotate.Result
	Summarize(ctx context.Context, title, content string) annotate.Result
}

// Crawler runs crawl flows against a single fetcher session.
type Crawler struct {
	cfg       config.Crawler
	segCfg    config.Segment
	page      fetcher.Page
	store     Store
	annotator Annotator
	parser    *schedule.Parser
	metrics   *observability.Metrics
	logger    *slog.Logger

	// now is swappable for deterministic date resolution in tests.
	now func() time.Time
}

// New creates a crawl orchestrator.
func New(cfg *config.Config, page fetcher.Page, store Store, annotator Annotator, metrics *observability.Metrics, logger *slog.Logger) *Crawler {
	return &Crawler{
		cfg:       cfg.Crawler,
		segCfg:    cfg.Segment,
		page:      page,
		store:     store,
		annotator: annotator,
		parser:    schedule.NewParser(logger),
		metrics:   metrics,
		logger:    logger.With("component", "crawler"),
		now:       time.Now,
	}
}

// Stats returns the run's outcome counters.
func (c *Crawler) Stats() map[string]int64 {
	return c.metrics.Snapshot()
}

// ClearThreadCollection wipes the thread collection for a full recrawl.
func (c *Crawler) ClearThreadCollection(ctx context.Context) error {
	return c.store.Clear(ctx, c.cfg.ThreadCollection)
}

// navigate loads a URL with the configured retry budget.
func (c *Crawler) navigate(ctx context.Context, url string) error {
	attempt := 0
	err := fetcher.Do(ctx, c.cfg.MaxRetries, func() error {
		if attempt++; attempt > 1 {
			c.metrics.FetchRetries.Add(1)
		}
		return c.page.Navigate(ctx, url)
	})
	if err == nil {
		c.metrics.PagesVisited.Add(1)
	}
	return err
}

// waitSelector waits for a selector with the configured retry budget.
func (c *Crawler) waitSelector(ctx context.Context, selector string) error {
	attempt := 0
	return fetcher.Do(ctx, c.cfg.MaxRetries, func() error {
		if attempt++; attempt > 1 {
			c.metrics.FetchRetries.Add(1)
		}
		return c.page.WaitSelector(ctx, selector, c.cfg.SelectorTimeout)
	})
}

// pause sleeps the inter-item delay unless the context ends first. The
// delay is the run's only backpressure against the annotation capability.
func (c *Crawler) pause(ctx context.Context) error {
	if c.cfg.ItemDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.cfg.ItemDelay):
		return nil
	}
}

// record updates counters from a per-item outcome and reports whether the
// surrounding loop should keep going.
func (c *Crawler) record(o types.Outcome) bool {
	switch o.Kind {
	case types.OutcomeContinue:
		c.metrics.ItemsProcessed.Add(1)
	case types.OutcomeSkipItem:
		if o.Err != nil {
			c.metrics.ItemsFailed.Add(1)
			c.logger.Warn("item skipped", "reason", o.Reason, "error", o.Err)
		} else {
			c.metrics.ItemsSkipped.Add(1)
			c.logger.Debug("item skipped", "reason", o.Reason)
		}
	case types.OutcomeAbortThread, types.OutcomeAbortRun:
		c.logger.Info("crawl stopping", "reason", o.Reason)
		return false
	}
	return true
}
