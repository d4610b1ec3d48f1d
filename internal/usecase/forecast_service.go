package usecase

import (
	"context"
	"errors"
	"time"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	domsvc "HomeCast/internal/domain/service"
	icache "HomeCast/internal/service/cache"
	"HomeCast/internal/service/forecast"
	pkgcache "HomeCast/pkg/cache"
	applogger "HomeCast/pkg/logger"
)

// ForecastService orchestrates store, strategy, and caches for /api/predict.
// The in-process TTL cache is always on; a shared cache (memory+redis
// layered) can sit behind it so forecast results survive restarts and are
// shared across replicas.
type ForecastService struct {
	store    domrepo.SeriesStore
	strategy domsvc.ForecastStrategy
	cache    *icache.TTLCache
	shared   pkgcache.Service // optional L2
	ttl      time.Duration
	metrics  domrepo.Metrics
	logger   *applogger.Logger
}

// NewForecastService creates the forecast service. shared may be nil.
func NewForecastService(
	store domrepo.SeriesStore,
	strategy domsvc.ForecastStrategy,
	cache *icache.TTLCache,
	shared pkgcache.Service,
	ttl time.Duration,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *ForecastService {
	if ttl <= 0 {
		ttl = icache.DefaultTTL
	}
	return &ForecastService{
		store:    store,
		strategy: strategy,
		cache:    cache,
		shared:   shared,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
	}
}

// Strategy returns the active strategy name.
func (f *ForecastService) Strategy() string {
	return f.strategy.Name()
}

// Forecast returns the cached or freshly computed forecast for the request.
// The horizon is clamped to [1,12] before anything else, so the clamped
// value also forms the cache key.
func (f *ForecastService) Forecast(ctx context.Context, req models.ForecastRequest, bypass bool) (*models.ForecastResult, error) {
	req.Horizon = forecast.ClampHorizon(req.Horizon)
	key := icache.ForecastKey{
		RegionID:          req.RegionID,
		Horizon:           req.Horizon,
		IncludeConfidence: req.IncludeConfidence,
	}.String()

	if !bypass {
		if v, ok := f.cache.Get(key); ok {
			if res, ok2 := v.(*models.ForecastResult); ok2 {
				f.recordCache("hit")
				return res, nil
			}
		}
		if f.shared != nil {
			var res models.ForecastResult
			if err := f.shared.Get(ctx, key, &res); err == nil {
				f.cache.Set(key, &res, f.ttl)
				f.recordCache("shared_hit")
				return &res, nil
			}
		}
	}
	f.recordCache("miss")

	res, err := f.compute(ctx, req)
	if err != nil {
		return nil, err
	}

	f.cache.Set(key, res, f.ttl)
	if f.shared != nil {
		if err := f.shared.Set(ctx, key, res, f.ttl); err != nil && f.logger != nil {
			f.logger.Warn("shared cache set failed", applogger.Error(err))
		}
	}
	return res, nil
}

func (f *ForecastService) compute(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error) {
	rs, err := f.store.Get(req.RegionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := f.strategy.Forecast(ctx, rs, req.Horizon, req.IncludeConfidence)
	if f.metrics != nil {
		f.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, forecast.ErrEmptySeries) {
			return nil, domrepo.ErrRegionNotFound
		}
		if f.metrics != nil {
			f.metrics.RecordError("forecast")
		}
		return nil, err
	}

	if f.metrics != nil {
		f.metrics.RecordForecast(f.strategy.Name(), req.RegionID)
	}
	return res, nil
}

// InvalidateRegion drops cached forecasts for one region.
func (f *ForecastService) InvalidateRegion(ctx context.Context, regionID string) {
	f.cache.Invalidate("forecast:" + regionID + ":")
	if f.shared != nil {
		_ = f.shared.DeleteByPattern(ctx, "forecast:"+regionID+":*")
	}
}

// ResetCache drops all cached forecasts. Called on full data reload.
func (f *ForecastService) ResetCache(ctx context.Context) {
	f.cache.Reset()
	if f.shared != nil {
		if err := f.shared.DeleteByPattern(ctx, "forecast:*"); err != nil && f.logger != nil {
			f.logger.Warn("shared cache reset failed", applogger.Error(err))
		}
	}
}

func (f *ForecastService) recordCache(outcome string) {
	if f.metrics != nil {
		f.metrics.RecordCache("forecast", outcome)
	}
}
