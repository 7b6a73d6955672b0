// Package metrics exposes Prometheus collectors for the catalog crawler.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registry *prometheus.Registry

	crawlerPagesTotal             *prometheus.CounterVec
	crawlerBytesTotal             *prometheus.CounterVec
	crawlerRecordsTotal           *prometheus.CounterVec
	crawlerSkippedBlocksTotal     *prometheus.CounterVec
	crawlerRunsTotal              *prometheus.CounterVec
	sinkWritesTotal               *prometheus.CounterVec
	sinkRowsTotal                 *prometheus.CounterVec
	crawlerFetchDurationSeconds   *prometheus.HistogramVec
	crawlerRateLimitDelaysSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		factory := promauto.With(registry)

		crawlerPagesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Total number of catalog pages fetched, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		crawlerBytesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		crawlerRecordsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_records_total",
				Help: "Total number of records extracted, labeled by site.",
			},
			[]string{"site"},
		)

		crawlerSkippedBlocksTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_skipped_blocks_total",
				Help: "Total number of listing blocks dropped during extraction, labeled by field.",
			},
			[]string{"field"},
		)

		crawlerRunsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_runs_total",
				Help: "Total number of crawls finished, labeled by termination reason.",
			},
			[]string{"reason"},
		)

		sinkWritesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_sink_writes_total",
				Help: "Total number of sink writes, labeled by sink kind and status.",
			},
			[]string{"kind", "status"},
		)

		sinkRowsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_sink_rows_total",
				Help: "Total number of records persisted, labeled by sink kind.",
			},
			[]string{"kind"},
		)

		crawlerFetchDurationSeconds = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by site.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"site"},
		)

		crawlerRateLimitDelaysSeconds = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_rate_limit_delays_seconds",
				Help:    "Histogram of politeness wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// Registry returns the registry holding the crawler collectors.
func Registry() *prometheus.Registry {
	Init()
	return registry
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObservePage records one fetch attempt.
func ObservePage(site string, status string, bytesFetched int, duration time.Duration) {
	Init()
	sanitizedSite := SanitizeSite(site)
	crawlerPagesTotal.WithLabelValues(sanitizedSite, status).Inc()
	if bytesFetched > 0 {
		crawlerBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
	if duration > 0 {
		crawlerFetchDurationSeconds.WithLabelValues(sanitizedSite).Observe(duration.Seconds())
	}
}

// ObserveRecords adds n extracted records for site.
func ObserveRecords(site string, n int) {
	Init()
	crawlerRecordsTotal.WithLabelValues(SanitizeSite(site)).Add(float64(n))
}

// ObserveSkippedBlock counts one listing block dropped because of field.
func ObserveSkippedBlock(field string) {
	Init()
	crawlerSkippedBlocksTotal.WithLabelValues(field).Inc()
}

// ObserveRun counts a finished crawl.
func ObserveRun(reason string) {
	Init()
	crawlerRunsTotal.WithLabelValues(reason).Inc()
}

// ObserveSinkWrite counts one sink write and the rows it persisted.
func ObserveSinkWrite(kind string, status string, rows int) {
	Init()
	sinkWritesTotal.WithLabelValues(kind, status).Inc()
	if rows > 0 {
		sinkRowsTotal.WithLabelValues(kind).Add(float64(rows))
	}
}

// ObserveRateLimitDelay records the duration of a politeness wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	crawlerRateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// WriteTextfile dumps the current metric values in the node exporter
// textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
