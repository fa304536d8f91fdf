// Package metrics exposes tile acquisition and render counters. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gpxmap"

type Metrics struct {
	CacheHits        prometheus.Counter
	Downloads        prometheus.Counter
	AttemptFailures  prometheus.Counter
	TilesUnavailable prometheus.Counter
	CacheWriteErrors prometheus.Counter
	FetchDuration    prometheus.Histogram

	RenderDuration prometheus.Histogram
	RenderTiles    *prometheus.GaugeVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tiles",
			Name:      "cache_hits_total",
			Help:      "Tiles served from the tile cache",
		}),
		Downloads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tiles",
			Name:      "downloads_total",
			Help:      "Tiles downloaded and decoded successfully",
		}),
		AttemptFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tiles",
			Name:      "attempt_failures_total",
			Help:      "Failed download or decode attempts, retried or not",
		}),
		TilesUnavailable: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tiles",
			Name:      "unavailable_total",
			Help:      "Tiles given up on after the retry budget was spent",
		}),
		CacheWriteErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tiles",
			Name:      "cache_write_errors_total",
			Help:      "Downloaded tiles that could not be stored in the cache",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tiles",
			Name:      "fetch_duration_seconds",
			Help:      "Time to obtain one tile, cache hits included",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 3, 10},
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "mosaic_duration_seconds",
			Help:      "Time to composite the tile mosaic",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		RenderTiles: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "tiles",
			Help:      "Tiles of the last mosaic by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) Downloaded() {
	if m != nil {
		m.Downloads.Inc()
	}
}

func (m *Metrics) AttemptFailed() {
	if m != nil {
		m.AttemptFailures.Inc()
	}
}

func (m *Metrics) Unavailable() {
	if m != nil {
		m.TilesUnavailable.Inc()
	}
}

func (m *Metrics) CacheWriteFailed() {
	if m != nil {
		m.CacheWriteErrors.Inc()
	}
}

func (m *Metrics) ObserveFetch(start time.Time) {
	if m != nil {
		m.FetchDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveMosaic records the outcome of one composited mosaic.
func (m *Metrics) ObserveMosaic(start time.Time, composited, failed int) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(time.Since(start).Seconds())
	m.RenderTiles.WithLabelValues("composited").Set(float64(composited))
	m.RenderTiles.WithLabelValues("failed").Set(float64(failed))
}

// WriteTextfile dumps everything gathered by g in the node exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
