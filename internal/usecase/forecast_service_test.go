package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	icache "HomeCast/internal/service/cache"
	"HomeCast/internal/service/forecast"
)

// countingStrategy records invocations and the horizons it received.
type countingStrategy struct {
	calls    int
	horizons []int
	err      error
}

func (s *countingStrategy) Name() string { return "counting" }

func (s *countingStrategy) Forecast(_ context.Context, series *models.RegionSeries, horizon int, includeConfidence bool) (*models.ForecastResult, error) {
	s.calls++
	s.horizons = append(s.horizons, horizon)
	if s.err != nil {
		return nil, s.err
	}
	return &models.ForecastResult{
		RegionID:    series.Meta.RegionID,
		Dates:       make([]string, horizon),
		Predictions: make([]float64, horizon),
	}, nil
}

func newForecastService(t *testing.T, strategy *countingStrategy) *ForecastService {
	t.Helper()
	store := loadedStore(t, map[string]*models.RegionSeries{
		"1": monthlySeries("1", "Seattle", 20, []float64{100, 200, 300}),
	})
	return NewForecastService(store, strategy, icache.NewTTLCache(), nil, time.Minute, nil, nil)
}

func TestForecastCached(t *testing.T) {
	strategy := &countingStrategy{}
	f := newForecastService(t, strategy)
	req := models.ForecastRequest{RegionID: "1", Horizon: 5}

	if _, err := f.Forecast(context.Background(), req, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if _, err := f.Forecast(context.Background(), req, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if strategy.calls != 1 {
		t.Fatalf("strategy ran %d times, want 1", strategy.calls)
	}
}

func TestForecastBypassRecomputes(t *testing.T) {
	strategy := &countingStrategy{}
	f := newForecastService(t, strategy)
	req := models.ForecastRequest{RegionID: "1", Horizon: 5}

	if _, err := f.Forecast(context.Background(), req, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if _, err := f.Forecast(context.Background(), req, true); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if strategy.calls != 2 {
		t.Fatalf("bypass should recompute, strategy ran %d times", strategy.calls)
	}
}

func TestForecastHorizonClamped(t *testing.T) {
	strategy := &countingStrategy{}
	f := newForecastService(t, strategy)

	if _, err := f.Forecast(context.Background(), models.ForecastRequest{RegionID: "1", Horizon: 0}, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if _, err := f.Forecast(context.Background(), models.ForecastRequest{RegionID: "1", Horizon: 20}, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	if strategy.horizons[0] != forecast.MinHorizon || strategy.horizons[1] != forecast.MaxHorizon {
		t.Fatalf("horizons %v, want clamped to [%d, %d]", strategy.horizons, forecast.MinHorizon, forecast.MaxHorizon)
	}
}

func TestForecastClampSharesCacheEntry(t *testing.T) {
	strategy := &countingStrategy{}
	f := newForecastService(t, strategy)

	// 20 and 40 both clamp to the max horizon, so they are the same entry.
	if _, err := f.Forecast(context.Background(), models.ForecastRequest{RegionID: "1", Horizon: 20}, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if _, err := f.Forecast(context.Background(), models.ForecastRequest{RegionID: "1", Horizon: 40}, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if strategy.calls != 1 {
		t.Fatalf("clamped-equal requests should share one entry, got %d computations", strategy.calls)
	}
}

func TestForecastUnknownRegion(t *testing.T) {
	f := newForecastService(t, &countingStrategy{})

	_, err := f.Forecast(context.Background(), models.ForecastRequest{RegionID: "999", Horizon: 5}, false)
	if !errors.Is(err, domrepo.ErrRegionNotFound) {
		t.Fatalf("expected ErrRegionNotFound, got %v", err)
	}
}

func TestForecastEmptySeriesMapsToNotFound(t *testing.T) {
	f := newForecastService(t, &countingStrategy{err: forecast.ErrEmptySeries})

	_, err := f.Forecast(context.Background(), models.ForecastRequest{RegionID: "1", Horizon: 5}, false)
	if !errors.Is(err, domrepo.ErrRegionNotFound) {
		t.Fatalf("expected ErrRegionNotFound for empty series, got %v", err)
	}
}

func TestForecastResetCache(t *testing.T) {
	strategy := &countingStrategy{}
	f := newForecastService(t, strategy)
	req := models.ForecastRequest{RegionID: "1", Horizon: 5}

	if _, err := f.Forecast(context.Background(), req, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	f.ResetCache(context.Background())
	if _, err := f.Forecast(context.Background(), req, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if strategy.calls != 2 {
		t.Fatalf("reset should drop cached forecasts, strategy ran %d times", strategy.calls)
	}
}

func TestReloaderResetsCaches(t *testing.T) {
	strategy := &countingStrategy{}
	store := loadedStore(t, map[string]*models.RegionSeries{
		"1": monthlySeries("1", "Seattle", 20, []float64{100, 200, 300}),
	})
	source := &fixtureSource{series: map[string]*models.RegionSeries{
		"1": monthlySeries("1", "Seattle", 20, []float64{100, 200, 300, 400}),
	}}

	forecasts := NewForecastService(store, strategy, icache.NewTTLCache(), nil, time.Minute, nil, nil)
	queries := NewQueryService(store, icache.NewTTLCache(), time.Minute, nil)
	reloader := NewReloader(store, source, nil, forecasts, queries, nil, nil)

	req := models.ForecastRequest{RegionID: "1", Horizon: 5}
	if _, err := forecasts.Forecast(context.Background(), req, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	statsBefore, _ := queries.Statistics(models.StatisticsRequest{RegionID: "1"})

	if err := reloader.Reload(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if _, err := forecasts.Forecast(context.Background(), req, false); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if strategy.calls != 2 {
		t.Fatalf("reload should invalidate forecasts, strategy ran %d times", strategy.calls)
	}

	statsAfter, err := queries.Statistics(models.StatisticsRequest{RegionID: "1"})
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if statsBefore == statsAfter {
		t.Fatalf("reload should invalidate query cache")
	}
	if statsAfter.Mean != 250 {
		t.Fatalf("statistics should see the new dataset, mean %v", statsAfter.Mean)
	}
}
