// Package metrics holds the Prometheus collectors updated during a poster run.
// A CLI run has no scrape endpoint, so the registry is dumped to a textfile
// for node_exporter's textfile collector when requested.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trombinoscope_cache_hits_total",
			Help: "Total number of transformed images served from the cache",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trombinoscope_cache_misses_total",
			Help: "Total number of transformed images computed",
		},
	)

	CacheWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trombinoscope_cache_write_errors_total",
			Help: "Total number of cache entries that could not be persisted",
		},
	)
)

// Layout metrics
var (
	PlaceholdersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trombinoscope_placeholders_total",
			Help: "Total number of images replaced by the placeholder",
		},
	)

	TransformDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trombinoscope_transform_duration_seconds",
			Help:    "Time spent decoding, cropping, resampling and encoding one image",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	DocumentsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trombinoscope_documents_written_total",
			Help: "Total number of poster documents written",
		},
		[]string{"dpi"},
	)
)

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
