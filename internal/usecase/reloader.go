package usecase

import (
	"context"
	"fmt"
	"time"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	applogger "HomeCast/pkg/logger"
)

// Notifier pushes dataset events to connected dashboard clients.
type Notifier interface {
	Broadcast(v interface{})
}

// EventPublisher publishes dataset events for other services.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// Reloader rebuilds the time series store from the configured source and
// flushes every derived cache. It is the only writer of shared state; the
// store swap itself is atomic, so readers never see a half-built dataset.
type Reloader struct {
	store       domrepo.SeriesStore
	source      domrepo.SeriesSource
	archive     domrepo.SeriesArchive // optional write-through
	forecasts   *ForecastService
	queries     *QueryService
	notifier    Notifier       // optional
	publisher   EventPublisher // optional
	eventsTopic string
	metrics     domrepo.Metrics
	logger      *applogger.Logger
}

// NewReloader creates the reload pipeline. archive, notifier, and publisher
// may be nil.
func NewReloader(
	store domrepo.SeriesStore,
	source domrepo.SeriesSource,
	archive domrepo.SeriesArchive,
	forecasts *ForecastService,
	queries *QueryService,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *Reloader {
	return &Reloader{
		store:     store,
		source:    source,
		archive:   archive,
		forecasts: forecasts,
		queries:   queries,
		metrics:   metrics,
		logger:    logger,
	}
}

// SetNotifier attaches the dashboard notification hub.
func (r *Reloader) SetNotifier(n Notifier) { r.notifier = n }

// SetPublisher attaches the event publisher and its topic.
func (r *Reloader) SetPublisher(p EventPublisher, topic string) {
	r.publisher = p
	r.eventsTopic = topic
}

// Reload rebuilds the store, archives the fresh dataset, invalidates all
// derived caches, and announces the new dataset.
func (r *Reloader) Reload(ctx context.Context) error {
	start := time.Now()

	if err := r.store.Reload(ctx, r.source); err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("reload")
		}
		return fmt.Errorf("reload store: %w", err)
	}

	if r.archive != nil {
		if archiveSource, ok := r.source.(domrepo.SeriesArchive); !ok || archiveSource != r.archive {
			if err := r.archiveSnapshot(ctx); err != nil && r.logger != nil {
				// Archival is best effort; serving continues on the fresh
				// in-memory snapshot.
				r.logger.Warn("series archive failed", applogger.Error(err))
			}
		}
	}

	// Derived results computed against the old dataset must not be served.
	r.forecasts.ResetCache(ctx)
	r.queries.ResetCache()

	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.RecordReload(r.store.Len(), elapsed.Seconds())
	}
	if r.logger != nil {
		r.logger.Info("dataset reloaded",
			applogger.Int("regions", r.store.Len()),
			applogger.Duration("duration_ms", elapsed),
		)
	}

	event := models.ReloadEvent{
		Type:       "dataset.reloaded",
		Regions:    r.store.Len(),
		ReloadedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if r.notifier != nil {
		r.notifier.Broadcast(event)
	}
	if r.publisher != nil && r.eventsTopic != "" {
		if err := r.publisher.Publish(ctx, r.eventsTopic, nil, event); err != nil && r.logger != nil {
			r.logger.Warn("reload event publish failed", applogger.Error(err))
		}
	}

	return nil
}

func (r *Reloader) archiveSnapshot(ctx context.Context) error {
	series := make(map[string]*models.RegionSeries, r.store.Len())
	for _, meta := range r.store.ListMetadata() {
		rs, err := r.store.Get(meta.RegionID)
		if err != nil {
			continue
		}
		series[meta.RegionID] = rs
	}
	return r.archive.SaveSeries(ctx, series)
}
