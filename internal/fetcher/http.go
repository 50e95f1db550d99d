package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/gamewatch/gamewatch/internal/config"
	"github.com/gamewatch/gamewatch/internal/types"
)

// Static fetches pages over plain HTTP. It satisfies Page for listings
// that render server-side; WaitSelector is a no-op and Click fails since
// nothing executes scripts here.
type Static struct {
	client *http.Client
	cfg    config.Fetcher
	body   string
	logger *slog.Logger
}

// NewStatic creates the HTTP fetcher.
func NewStatic(cfg config.Fetcher, timeout time.Duration, logger *slog.Logger) (*Static, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// Decompression is handled here so brotli works too.
		DisableCompression: true,
	}

	return &Static{
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		cfg:    cfg,
		logger: logger.With("component", "http_fetcher"),
	}, nil
}

// Navigate fetches the URL and caches the decoded body for HTML.
func (s *Static) Navigate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &types.FetchError{URL: url, Op: "request", Err: err, Retryable: false}
	}

	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return &types.FetchError{URL: url, Op: "fetch", Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return &types.FetchError{URL: url, Op: "fetch", Err: fmt.Errorf("HTTP %d", resp.StatusCode), Retryable: true}
	}
	if resp.StatusCode >= 400 {
		return &types.FetchError{URL: url, Op: "fetch", Err: fmt.Errorf("HTTP %d", resp.StatusCode), Retryable: false}
	}

	var reader io.Reader = resp.Body
	if s.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, s.cfg.MaxBodySize)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return &types.FetchError{URL: url, Op: "decompress", Err: err, Retryable: false}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return &types.FetchError{URL: url, Op: "read", Err: err, Retryable: true}
	}

	s.body = string(body)
	s.logger.Debug("fetch complete", "url", url, "status", resp.StatusCode,
		"size", len(body), "duration", time.Since(start))
	return nil
}

// HTML returns the body of the last Navigate.
func (s *Static) HTML(_ context.Context) (string, error) {
	return s.body, nil
}

// WaitSelector is a no-op: static pages arrive complete.
func (s *Static) WaitSelector(context.Context, string, time.Duration) error {
	return nil
}

// Click cannot work without a script engine.
func (s *Static) Click(_ context.Context, selector string, _ time.Duration) error {
	return &types.FetchError{Op: "click", Err: fmt.Errorf("%s: static fetcher cannot click", selector), Retryable: false}
}

// Close releases idle connections.
func (s *Static) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// decompressReader wraps a reader with the decoder the response's
// Content-Encoding calls for. Handles gzip, deflate and brotli.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
