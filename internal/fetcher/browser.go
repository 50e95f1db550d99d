package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/gamewatch/gamewatch/internal/config"
	"github.com/gamewatch/gamewatch/internal/types"
)

// Every rod call carries a deadline. Rod element queries retry until the
// node appears, so an unbounded lookup on a selector that never shows up
// would block for the life of the process.
const (
	defaultNavTimeout     = 60 * time.Second
	defaultElementTimeout = 10 * time.Second
)

// Browser drives a single headless-browser tab via Rod. The crawl reuses
// one tab for every navigation: forum state (dismissed popups, cookies)
// has to survive between pages, so there is no page pool.
type Browser struct {
	browser    *rod.Browser
	page       *rod.Page
	cfg        config.Fetcher
	navTimeout time.Duration
	logger     *slog.Logger
}

// NewBrowser launches Chromium and opens the crawl tab. navTimeout bounds
// each page load.
func NewBrowser(cfg config.Fetcher, navTimeout time.Duration, logger *slog.Logger) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-extensions").
		Set("disable-blink-features", "AutomationControlled")

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	b := &Browser{
		browser:    browser,
		cfg:        cfg,
		navTimeout: timeoutOrDefault(navTimeout, defaultNavTimeout),
		logger:     logger.With("component", "browser"),
	}

	if cfg.Stealth {
		b.page, err = stealth.Page(browser)
	} else {
		b.page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if cfg.UserAgent != "" {
		if err := b.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			b.logger.Warn("failed to set user agent", "error", err)
		}
	}

	b.logger.Info("browser ready", "headless", cfg.Headless, "stealth", cfg.Stealth)
	return b, nil
}

// Navigate loads a URL in the crawl tab and waits for it to settle.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx).Timeout(b.navTimeout)
	if err := page.Navigate(url); err != nil {
		return &types.FetchError{URL: url, Op: "navigate", Err: err, Retryable: true}
	}
	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		b.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

// HTML returns the rendered markup of the current page.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", &types.FetchError{Op: "html", Err: err, Retryable: true}
	}
	return html, nil
}

// WaitSelector blocks until the selector is visible or the timeout passes.
func (b *Browser) WaitSelector(ctx context.Context, selector string, timeout time.Duration) error {
	page := b.page.Context(ctx).Timeout(timeoutOrDefault(timeout, defaultElementTimeout))
	el, err := page.Element(selector)
	if err != nil {
		return &types.FetchError{Op: "wait_selector", Err: fmt.Errorf("%s: %w", selector, err), Retryable: true}
	}
	if err := el.WaitVisible(); err != nil {
		return &types.FetchError{Op: "wait_selector", Err: fmt.Errorf("%s: %w", selector, err), Retryable: true}
	}
	return nil
}

// Click clicks the first element matching the selector. The lookup is
// bounded: rod keeps polling for absent elements, so an element that never
// appears surfaces as a FetchError once the timeout passes instead of
// hanging the crawl.
func (b *Browser) Click(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := b.page.Context(ctx).Timeout(timeoutOrDefault(timeout, defaultElementTimeout)).Element(selector)
	if err != nil {
		return &types.FetchError{Op: "click", Err: fmt.Errorf("%s: %w", selector, err), Retryable: true}
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return &types.FetchError{Op: "click", Err: fmt.Errorf("%s: %w", selector, err), Retryable: true}
	}
	return nil
}

func timeoutOrDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Close shuts down the tab and the browser.
func (b *Browser) Close() error {
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		return b.browser.Close()
	}
	return nil
}
