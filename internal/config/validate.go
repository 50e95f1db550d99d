package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values. A failure here is
// fatal at startup: the process exits with a non-zero status.
func Validate(cfg *Config) error {
	if cfg.Crawler.Mode != "incremental" && cfg.Crawler.Mode != "full" {
		return fmt.Errorf("crawler.mode must be 'incremental' or 'full', got %q", cfg.Crawler.Mode)
	}
	if cfg.Crawler.ItemDelay < 0 {
		return fmt.Errorf("crawler.item_delay must be >= 0")
	}
	if cfg.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if cfg.Crawler.SelectorTimeout <= 0 {
		return fmt.Errorf("crawler.selector_timeout must be > 0")
	}
	if cfg.Crawler.MaxRetries < 1 {
		return fmt.Errorf("crawler.max_retries must be >= 1, got %d", cfg.Crawler.MaxRetries)
	}
	if cfg.Crawler.ListingURL != "" {
		if err := ValidateURL(cfg.Crawler.ListingURL); err != nil {
			return fmt.Errorf("crawler.listing_url: %w", err)
		}
	}
	if cfg.Crawler.BoardURL != "" {
		if err := ValidateURL(cfg.Crawler.BoardURL); err != nil {
			return fmt.Errorf("crawler.board_url: %w", err)
		}
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	if cfg.Segment.MinSectionLength < 0 {
		return fmt.Errorf("segment.min_section_length must be >= 0")
	}
	if cfg.Segment.MajorSectionLength < cfg.Segment.MinSectionLength {
		return fmt.Errorf("segment.major_section_length must be >= segment.min_section_length")
	}

	if cfg.Store.URI == "" {
		return fmt.Errorf("store.uri is required (set GAMEWATCH_STORE_URI or store.uri)")
	}
	if cfg.Store.Database == "" {
		return fmt.Errorf("store.database is required")
	}

	if cfg.AI.Enabled {
		if cfg.AI.Provider != "ollama" && cfg.AI.Provider != "openai" && cfg.AI.Provider != "custom" {
			return fmt.Errorf("ai.provider must be ollama/openai/custom, got %q", cfg.AI.Provider)
		}
		if cfg.AI.Endpoint == "" && cfg.AI.Provider != "openai" {
			return fmt.Errorf("ai.endpoint is required for provider %q", cfg.AI.Provider)
		}
		if cfg.AI.MaxTokens <= 0 {
			return fmt.Errorf("ai.max_tokens must be > 0")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks that a URL is usable as a crawl target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
