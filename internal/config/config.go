package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for gamewatch.
type Config struct {
	Crawler Crawler `mapstructure:"crawler" yaml:"crawler"`
	Fetcher Fetcher `mapstructure:"fetcher" yaml:"fetcher"`
	Segment Segment `mapstructure:"segment" yaml:"segment"`
	Store   Store   `mapstructure:"store"   yaml:"store"`
	AI      AI      `mapstructure:"ai"      yaml:"ai"`
	Logging Logging `mapstructure:"logging" yaml:"logging"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
}

// Crawler controls the crawl orchestrator.
type Crawler struct {
	// ListingURL is the paginated news index (listing flow).
	ListingURL string `mapstructure:"listing_url" yaml:"listing_url"`

	// BoardURL is the forum board whose newest thread carries the update
	// log (thread flow).
	BoardURL string `mapstructure:"board_url" yaml:"board_url"`

	// Mode is "incremental" (stop at the first already-known item) or
	// "full" (process everything, duplicates tolerated at insert).
	Mode string `mapstructure:"mode" yaml:"mode"`

	// ItemDelay is the fixed pause between items, the only backpressure
	// against the annotation capability.
	ItemDelay time.Duration `mapstructure:"item_delay" yaml:"item_delay"`

	RequestTimeout  time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"`
	SelectorTimeout time.Duration `mapstructure:"selector_timeout" yaml:"selector_timeout"`

	// MaxRetries bounds retries of flaky browser operations. Retries are
	// immediate; there is deliberately no backoff.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	NewsCollection    string `mapstructure:"news_collection"    yaml:"news_collection"`
	UpdatesCollection string `mapstructure:"updates_collection" yaml:"updates_collection"`
	ThreadCollection  string `mapstructure:"thread_collection"  yaml:"thread_collection"`
}

// Fetcher controls how pages are loaded.
type Fetcher struct {
	// Type selects "browser" (headless Chromium) or "http" (plain GET,
	// only usable against sources that render server-side).
	Type        string `mapstructure:"type"          yaml:"type"`
	Headless    bool   `mapstructure:"headless"      yaml:"headless"`
	Stealth     bool   `mapstructure:"stealth"       yaml:"stealth"`
	UserAgent   string `mapstructure:"user_agent"    yaml:"user_agent"`
	MaxBodySize int64  `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// Segment tunes the section segmenter.
type Segment struct {
	// MinSectionLength drops sections shorter than this many characters.
	// Tune with care: too high and real short events disappear.
	MinSectionLength int `mapstructure:"min_section_length" yaml:"min_section_length"`

	// MajorSectionLength promotes an unnumbered section to "major" when
	// its content exceeds this many characters.
	MajorSectionLength int `mapstructure:"major_section_length" yaml:"major_section_length"`
}

// Store configures the news datastore.
type Store struct {
	URI      string        `mapstructure:"uri"      yaml:"uri"`
	Database string        `mapstructure:"database" yaml:"database"`
	Timeout  time.Duration `mapstructure:"timeout"  yaml:"timeout"`
}

// AI configures the LLM capability used by the annotator.
type AI struct {
	Enabled     bool    `mapstructure:"enabled"     yaml:"enabled"`
	Provider    string  `mapstructure:"provider"    yaml:"provider"`
	Endpoint    string  `mapstructure:"endpoint"    yaml:"endpoint"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	APIKey      string  `mapstructure:"api_key"     yaml:"api_key"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
}

// Logging controls logging behavior.
type Logging struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Metrics controls the metrics endpoint.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Crawler: Crawler{
			ListingURL:        "https://www.princessconnect.so-net.tw/news",
			BoardURL:          "https://forum.nexon.com/bluearchiveTW/board_list?board=3352",
			Mode:              "incremental",
			ItemDelay:         1500 * time.Millisecond,
			RequestTimeout:    60 * time.Second,
			SelectorTimeout:   10 * time.Second,
			MaxRetries:        3,
			NewsCollection:    "news",
			UpdatesCollection: "updates",
			ThreadCollection:  "blue_archive_news",
		},
		Fetcher: Fetcher{
			Type:        "browser",
			Headless:    true,
			Stealth:     false,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodySize: 10 * 1024 * 1024,
		},
		Segment: Segment{
			MinSectionLength:   50,
			MajorSectionLength: 300,
		},
		Store: Store{
			Database: "gamewatch",
			Timeout:  10 * time.Second,
		},
		AI: AI{
			Enabled:     true,
			Provider:    "ollama",
			Endpoint:    "http://localhost:11434",
			Model:       "gemma3:4b",
			Temperature: 0.1,
			MaxTokens:   1000,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Metrics: Metrics{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
