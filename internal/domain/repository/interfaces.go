package repository

import (
	"context"
	"errors"

	"HomeCast/internal/domain/models"
)

// ErrRegionNotFound is returned when a region id has no series in the store.
var ErrRegionNotFound = errors.New("region not found")

// SeriesStore is the read side of the time series store. Implementations
// must be safe for concurrent readers; Reload installs a full replacement
// snapshot atomically.
type SeriesStore interface {
	Get(regionID string) (*models.RegionSeries, error)
	ListMetadata() []models.RegionMeta
	Len() int
	Loaded() bool
	Reload(ctx context.Context, source SeriesSource) error
}

// SeriesSource produces a full normalized dataset for a store rebuild.
type SeriesSource interface {
	LoadSeries(ctx context.Context) (map[string]*models.RegionSeries, error)
}

// SeriesArchive persists the normalized long-format series so a rebuilt
// dataset survives restarts and can serve as an alternative source.
type SeriesArchive interface {
	SeriesSource
	SaveSeries(ctx context.Context, series map[string]*models.RegionSeries) error
}

// SequencePredictor is the trained sequence model: one scaled window in,
// the next scaled value out. Implementations are stateless across calls and
// safe to share between concurrent requests.
type SequencePredictor interface {
	Predict(ctx context.Context, window []float64) (float64, error)
	WindowSize() int
	Ready() bool
}

// Metrics abstracts operational metrics recording.
type Metrics interface {
	RecordForecast(strategy, regionID string)
	RecordCache(cache, outcome string)
	RecordReload(regions int, seconds float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
