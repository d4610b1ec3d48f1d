package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"HomeCast/internal/domain/models"
	"HomeCast/internal/repository"
	icache "HomeCast/internal/service/cache"
	"HomeCast/internal/service/forecast"
	"HomeCast/internal/usecase"
	applogger "HomeCast/pkg/logger"
)

type fixtureSource struct {
	series map[string]*models.RegionSeries
}

func (f *fixtureSource) LoadSeries(context.Context) (map[string]*models.RegionSeries, error) {
	return f.series, nil
}

func fixtureSeries() map[string]*models.RegionSeries {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, 0, 18)
	for i := 0; i < 18; i++ {
		points = append(points, models.PricePoint{Date: start.AddDate(0, i, 0), Price: 100000 + float64(i)*1000})
	}
	return map[string]*models.RegionSeries{
		"395057": {
			Meta: models.RegionMeta{
				RegionID:   "395057",
				RegionName: "Seattle, WA",
				RegionType: "msa",
				StateName:  "WA",
				SizeRank:   15,
			},
			Points: points,
		},
	}
}

func newTestServer(t *testing.T, loaded bool) (*echo.Echo, *HousingHandler) {
	t.Helper()

	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store := repository.NewMemorySeriesStore()
	if loaded {
		if err := store.Reload(context.Background(), &fixtureSource{series: fixtureSeries()}); err != nil {
			t.Fatalf("store reload: %v", err)
		}
	}

	queries := usecase.NewQueryService(store, icache.NewTTLCache(), time.Minute, nil)
	forecasts := usecase.NewForecastService(store, forecast.NewBlendStrategy(42), icache.NewTTLCache(), nil, time.Minute, nil, logger)
	reloader := usecase.NewReloader(store, &fixtureSource{series: fixtureSeries()}, nil, forecasts, queries, nil, logger)

	h := NewHousingHandler(logger, store, queries, forecasts, reloader, nil, RateLimitConfig{}, func() bool { return true })

	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func doRequest(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var resp models.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || !resp.DataLoaded || !resp.ModelLoaded {
		t.Fatalf("unexpected health payload %+v", resp)
	}
}

func TestHealthBeforeLoad(t *testing.T) {
	e, _ := newTestServer(t, false)

	rec := doRequest(e, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("health must stay 200 before load, got %d", rec.Code)
	}

	var resp models.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.DataLoaded {
		t.Fatalf("unexpected health payload before load: %+v", resp)
	}
}

func TestDataEndpointsBeforeLoad(t *testing.T) {
	e, _ := newTestServer(t, false)

	for _, target := range []string{"/api/regions", "/api/prices?region_id=1", "/api/predict?region_id=1", "/api/statistics?region_id=1"} {
		rec := doRequest(e, http.MethodGet, target)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: status %d, want 503", target, rec.Code)
		}
	}
}

func TestRegions(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/regions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var resp models.RegionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Regions) != 1 || resp.Regions[0].RegionID != "395057" {
		t.Fatalf("unexpected regions %+v", resp.Regions)
	}
}

func TestPrices(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/prices?region_id=395057&start_date=2023-02-01&end_date=2023-03-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var resp models.PricesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Dates) != 2 || resp.Dates[0] != "2023-02-01" {
		t.Fatalf("unexpected dates %v", resp.Dates)
	}
	if resp.RegionName != "Seattle, WA" {
		t.Fatalf("unexpected region name %q", resp.RegionName)
	}
}

func TestPricesUnknownRegionIsEmpty(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/prices?region_id=999999")
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown region on prices should be 200, got %d", rec.Code)
	}

	var resp models.PricesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RegionName != "" || len(resp.Dates) != 0 || len(resp.Prices) != 0 {
		t.Fatalf("expected empty payload, got %+v", resp)
	}
}

func TestPricesMissingRegionID(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/prices")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}

	var envelope map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope["error"] == "" {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
}

func TestPricesInvalidDate(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/prices?region_id=395057&start_date=02/01/2023")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestPredictDefaults(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/predict?region_id=395057")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp models.ForecastResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Predictions) != 5 || len(resp.Dates) != 5 {
		t.Fatalf("default horizon should be 5, got %d/%d", len(resp.Predictions), len(resp.Dates))
	}
	if resp.ConfidenceIntervals != nil {
		t.Fatalf("confidence not requested but present")
	}
	if resp.RegionID != "395057" {
		t.Fatalf("unexpected region id %q", resp.RegionID)
	}
}

func TestPredictWithConfidence(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/predict?region_id=395057&months_ahead=3&include_confidence=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp models.ForecastResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Predictions) != 3 || len(resp.ConfidenceIntervals) != 3 {
		t.Fatalf("unexpected shape %d/%d", len(resp.Predictions), len(resp.ConfidenceIntervals))
	}
	for i, ci := range resp.ConfidenceIntervals {
		if ci.Lower() > resp.Predictions[i] || ci.Upper() < resp.Predictions[i] {
			t.Fatalf("step %d interval %v does not bracket prediction %v", i, ci, resp.Predictions[i])
		}
	}
}

func TestPredictHorizonClamped(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/predict?region_id=395057&months_ahead=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var resp models.ForecastResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Predictions) != 12 {
		t.Fatalf("horizon should clamp to 12, got %d", len(resp.Predictions))
	}
}

func TestPredictUnknownRegion(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/predict?region_id=999999")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestRegionDetail(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/region/395057")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var resp models.RegionDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RegionName != "Seattle, WA" || resp.SizeRank != 15 {
		t.Fatalf("unexpected detail %+v", resp)
	}

	if rec := doRequest(e, http.MethodGet, "/api/region/999999"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown region detail status %d, want 404", rec.Code)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := doRequest(e, http.MethodGet, "/api/statistics?region_id=395057")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}

	var resp models.SeriesStats
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Min != 100000 || resp.Max != 117000 {
		t.Fatalf("unexpected min/max %v/%v", resp.Min, resp.Max)
	}

	if rec := doRequest(e, http.MethodGet, "/api/statistics?region_id=999999"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown region statistics status %d, want 404", rec.Code)
	}
}

func TestReloadEndpoint(t *testing.T) {
	e, _ := newTestServer(t, false)

	rec := doRequest(e, http.MethodPost, "/api/reload")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// The dataset is now live.
	if rec := doRequest(e, http.MethodGet, "/api/regions"); rec.Code != http.StatusOK {
		t.Fatalf("regions after reload status %d, want 200", rec.Code)
	}
}

func TestPredictRateLimit(t *testing.T) {
	logger, _ := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	store := repository.NewMemorySeriesStore()
	if err := store.Reload(context.Background(), &fixtureSource{series: fixtureSeries()}); err != nil {
		t.Fatalf("store reload: %v", err)
	}
	queries := usecase.NewQueryService(store, icache.NewTTLCache(), time.Minute, nil)
	forecasts := usecase.NewForecastService(store, forecast.NewBlendStrategy(42), icache.NewTTLCache(), nil, time.Minute, nil, logger)
	reloader := usecase.NewReloader(store, &fixtureSource{series: fixtureSeries()}, nil, forecasts, queries, nil, logger)

	h := NewHousingHandler(logger, store, queries, forecasts, reloader, nil,
		RateLimitConfig{Enabled: true, Capacity: 2, RefillPerSec: 0.001}, func() bool { return true })
	e := echo.New()
	h.RegisterRoutes(e)

	for i := 0; i < 2; i++ {
		if rec := doRequest(e, http.MethodGet, "/api/predict?region_id=395057"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status %d, want 200", i, rec.Code)
		}
	}
	if rec := doRequest(e, http.MethodGet, "/api/predict?region_id=395057"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("exhausted bucket status %d, want 429", rec.Code)
	}
}
