package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecastsTotal *prometheus.CounterVec
	cacheTotal     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	reloadRegions  prometheus.Gauge
	reloadSeconds  prometheus.Histogram
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homecast_forecasts_total",
				Help: "Total number of forecasts computed",
			},
			[]string{"strategy", "region"},
		),
		cacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homecast_cache_requests_total",
				Help: "Cache lookups by cache name and outcome",
			},
			[]string{"cache", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		reloadRegions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "homecast_dataset_regions",
				Help: "Number of regions in the current dataset",
			},
		),
		reloadSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homecast_reload_duration_seconds",
				Help:    "Duration of full dataset reloads",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homecast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordForecast records one computed forecast.
func (r *Recorder) RecordForecast(strategy, regionID string) {
	r.forecastsTotal.WithLabelValues(strategy, regionID).Inc()
}

// RecordCache records a cache lookup outcome.
func (r *Recorder) RecordCache(cache, outcome string) {
	r.cacheTotal.WithLabelValues(cache, outcome).Inc()
}

// RecordReload records a completed dataset reload.
func (r *Recorder) RecordReload(regions int, seconds float64) {
	r.reloadRegions.Set(float64(regions))
	r.reloadSeconds.Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
