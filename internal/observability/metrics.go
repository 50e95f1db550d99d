// Package observability tracks crawl outcome counters and exposes them in
// Prometheus text exposition format.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics counts what happened to discovered items during a crawl run.
type Metrics struct {
	// Discovery metrics
	PagesVisited    atomic.Int64
	ItemsDiscovered atomic.Int64

	// Outcome metrics
	ItemsProcessed atomic.Int64
	ItemsSkipped   atomic.Int64
	ItemsExcluded  atomic.Int64
	ItemsFailed    atomic.Int64
	ItemsStored    atomic.Int64

	// Annotation metrics
	AnnotationsDegraded atomic.Int64

	// Structure metrics
	StructuralDrifts atomic.Int64
	FetchRetries     atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"gamewatch_pages_visited_total", "Listing and detail pages visited", m.PagesVisited.Load()},
		{"gamewatch_items_discovered_total", "Items discovered on listings and schedules", m.ItemsDiscovered.Load()},
		{"gamewatch_items_processed_total", "Items fully processed", m.ItemsProcessed.Load()},
		{"gamewatch_items_skipped_total", "Items skipped after a local failure", m.ItemsSkipped.Load()},
		{"gamewatch_items_excluded_total", "Items excluded by title or category filters", m.ItemsExcluded.Load()},
		{"gamewatch_items_failed_total", "Items that errored while processing", m.ItemsFailed.Load()},
		{"gamewatch_items_stored_total", "Items written to the store", m.ItemsStored.Load()},
		{"gamewatch_annotations_degraded_total", "Annotations served by the heuristic fallback", m.AnnotationsDegraded.Load()},
		{"gamewatch_structural_drifts_total", "Thread aborts due to page structure drift", m.StructuralDrifts.Load()},
		{"gamewatch_fetch_retries_total", "Fetch operations retried", m.FetchRetries.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all counters as a map, for the end-of-run log line.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_visited":        m.PagesVisited.Load(),
		"items_discovered":     m.ItemsDiscovered.Load(),
		"items_processed":      m.ItemsProcessed.Load(),
		"items_skipped":        m.ItemsSkipped.Load(),
		"items_excluded":       m.ItemsExcluded.Load(),
		"items_failed":         m.ItemsFailed.Load(),
		"items_stored":         m.ItemsStored.Load(),
		"annotations_degraded": m.AnnotationsDegraded.Load(),
		"structural_drifts":    m.StructuralDrifts.Load(),
		"fetch_retries":        m.FetchRetries.Load(),
	}
}
