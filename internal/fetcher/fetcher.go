// Package fetcher provides the page-fetching capability behind the crawl:
// a rod-driven headless browser for script-heavy boards and a plain HTTP
// client for static listing pages.
package fetcher

import (
	"context"
	"time"
)

// Page is one navigable session. Implementations hold state between calls;
// HTML returns the content of whatever Navigate last loaded.
type Page interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	WaitSelector(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	Close() error
}
