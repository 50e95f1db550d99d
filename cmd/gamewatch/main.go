package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamewatch/gamewatch/internal/ai"
	"github.com/gamewatch/gamewatch/internal/annotate"
	"github.com/gamewatch/gamewatch/internal/config"
	"github.com/gamewatch/gamewatch/internal/crawler"
	"github.com/gamewatch/gamewatch/internal/fetcher"
	"github.com/gamewatch/gamewatch/internal/observability"
	"github.com/gamewatch/gamewatch/internal/store"
	"github.com/gamewatch/gamewatch/internal/types"
)

var (
	cfgFile    string
	verbose    bool
	mode       string
	itemDelay  string
	storeURI   string
	aiDisabled bool
	clearFirst bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gamewatch",
		Short: "gamewatch — game announcement crawler and classifier",
		Long: `gamewatch crawls official game-news sources, classifies every
announcement, extracts schedules and banners, and annotates each item
with an LLM-generated summary before storing it.

Sources:
  • a paginated news listing, crawled incrementally (crawl)
  • a forum board whose newest thread carries the update log (schedule)`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "crawl mode: incremental or full")
	rootCmd.PersistentFlags().StringVar(&itemDelay, "item-delay", "", "pause between items, e.g. 1500ms")
	rootCmd.PersistentFlags().StringVar(&storeURI, "store-uri", "", "MongoDB connection URI")
	rootCmd.PersistentFlags().BoolVar(&aiDisabled, "no-ai", false, "skip the LLM and use heuristic annotation only")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// crawlCmd creates the "crawl" subcommand for the listing flow.
func crawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the paginated news listing",
		Long: `Walk the news listing page by page, visiting every unseen item's
detail page. Incremental mode stops at the first already-stored item;
full mode visits everything and lets insert-time dedup absorb repeats.`,
		RunE: runCrawl,
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, cleanup, err := buildCrawler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting listing crawl", "url", cfg.Crawler.ListingURL, "mode", cfg.Crawler.Mode)

	start := time.Now()
	if err := run.CrawlListing(ctx); err != nil {
		return fmt.Errorf("listing crawl: %w", err)
	}

	reportStats(run, time.Since(start))
	return nil
}

// scheduleCmd creates the "schedule" subcommand for the thread flow.
func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Process the newest update thread's schedule table",
		Long: `Open the forum board, locate the newest update thread, parse its
main schedule table and store one annotated item per scheduled event.
When the page layout has drifted the run stops cleanly without writes.`,
		RunE: runSchedule,
	}
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "clear the thread collection before crawling (full recrawl)")
	return cmd
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if clearFirst {
		cfg.Crawler.Mode = crawler.ModeFull
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, cleanup, err := buildCrawler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if clearFirst {
		if err := run.ClearThreadCollection(ctx); err != nil {
			return err
		}
	}

	logger.Info("starting thread crawl", "board", cfg.Crawler.BoardURL, "mode", cfg.Crawler.Mode)

	start := time.Now()
	err = run.CrawlThread(ctx)
	switch {
	case errors.Is(err, types.ErrStructuralDrift):
		// Layout drift means the source changed, not that we crashed.
		logger.Error("page structure has drifted, nothing processed", "error", err)
		fmt.Println("⚠️  Source page structure has changed; the parser needs updating.")
		return nil
	case errors.Is(err, types.ErrNoThread):
		logger.Error("no usable thread on the board", "error", err)
		return nil
	case err != nil:
		return fmt.Errorf("thread crawl: %w", err)
	}

	reportStats(run, time.Since(start))
	return nil
}

// clearCmd creates the "clear" subcommand.
func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [collection...]",
		Short: "Delete every document from the named collections",
		Long:  "Without arguments, clears the news, updates and thread collections.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := store.Connect(ctx, cfg.Store, logger)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())

			collections := args
			if len(collections) == 0 {
				collections = []string{
					cfg.Crawler.NewsCollection,
					cfg.Crawler.UpdatesCollection,
					cfg.Crawler.ThreadCollection,
				}
			}
			for _, c := range collections {
				if err := db.Clear(ctx, c); err != nil {
					return err
				}
				fmt.Printf("cleared %s\n", c)
			}
			return nil
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)

			fmt.Printf("Crawler:\n")
			fmt.Printf("  Listing URL:      %s\n", cfg.Crawler.ListingURL)
			fmt.Printf("  Board URL:        %s\n", cfg.Crawler.BoardURL)
			fmt.Printf("  Mode:             %s\n", cfg.Crawler.Mode)
			fmt.Printf("  Item Delay:       %s\n", cfg.Crawler.ItemDelay)
			fmt.Printf("  Request Timeout:  %s\n", cfg.Crawler.RequestTimeout)
			fmt.Printf("  Max Retries:      %d\n", cfg.Crawler.MaxRetries)
			fmt.Printf("  Collections:      %s, %s, %s\n",
				cfg.Crawler.NewsCollection, cfg.Crawler.UpdatesCollection, cfg.Crawler.ThreadCollection)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:             %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Headless:         %v\n", cfg.Fetcher.Headless)
			fmt.Printf("  Stealth:          %v\n", cfg.Fetcher.Stealth)
			fmt.Printf("\nSegment:\n")
			fmt.Printf("  Min Length:       %d\n", cfg.Segment.MinSectionLength)
			fmt.Printf("  Major Length:     %d\n", cfg.Segment.MajorSectionLength)
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Database:         %s\n", cfg.Store.Database)
			fmt.Printf("  Timeout:          %s\n", cfg.Store.Timeout)
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.AI.Enabled)
			fmt.Printf("  Provider:         %s\n", cfg.AI.Provider)
			fmt.Printf("  Model:            %s\n", cfg.AI.Model)
			fmt.Printf("  Temperature:      %.2f\n", cfg.AI.Temperature)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:          %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:             %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gamewatch %s\n", config.Version)
		},
	}
}

// setup loads and validates config and builds the logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg), nil
}

// buildCrawler wires the fetcher, store, annotator and metrics into a
// crawl orchestrator. cleanup releases the browser and the store.
func buildCrawler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*crawler.Crawler, func(), error) {
	var page fetcher.Page
	var err error
	if cfg.Fetcher.Type == "http" {
		page, err = fetcher.NewStatic(cfg.Fetcher, cfg.Crawler.RequestTimeout, logger)
	} else {
		page, err = fetcher.NewBrowser(cfg.Fetcher, cfg.Crawler.RequestTimeout, logger)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create fetcher: %w", err)
	}

	db, err := store.Connect(ctx, cfg.Store, logger)
	if err != nil {
		_ = page.Close()
		return nil, nil, err
	}
	if err := db.EnsureIndexes(ctx, cfg.Crawler.NewsCollection, cfg.Crawler.UpdatesCollection); err != nil {
		logger.Warn("index creation failed", "error", err)
	}

	var generator annotate.Generator
	if cfg.AI.Enabled {
		generator = ai.NewClient(cfg.AI, logger)
	}
	annotator := annotate.New(generator, logger)

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	cleanup := func() {
		_ = page.Close()
		_ = db.Close(context.Background())
	}
	return crawler.New(cfg, page, db, annotator, metrics, logger), cleanup, nil
}

// reportStats prints the end-of-run summary.
func reportStats(run *crawler.Crawler, elapsed time.Duration) {
	stats := run.Stats()
	fmt.Printf("\n✅ Crawl complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Pages:   %d visited\n", stats["pages_visited"])
	fmt.Printf("   Items:   %d discovered, %d stored, %d excluded\n",
		stats["items_discovered"], stats["items_stored"], stats["items_excluded"])
	fmt.Printf("   Errors:  %d failed, %d skipped, %d degraded annotations\n",
		stats["items_failed"], stats["items_skipped"], stats["annotations_degraded"])
}

// setupLogger creates a structured logger per the logging config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if mode != "" {
		cfg.Crawler.Mode = mode
	}
	if itemDelay != "" {
		if d, err := time.ParseDuration(itemDelay); err == nil {
			cfg.Crawler.ItemDelay = d
		}
	}
	if storeURI != "" {
		cfg.Store.URI = storeURI
	}
	if aiDisabled {
		cfg.AI.Enabled = false
	}
}
