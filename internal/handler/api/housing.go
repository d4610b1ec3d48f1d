package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	"HomeCast/internal/service/forecast"
	"HomeCast/internal/service/ratelimit"
	"HomeCast/internal/service/stream"
	"HomeCast/internal/usecase"
	xhttp "HomeCast/pkg/http"
	applogger "HomeCast/pkg/logger"
)

// RateLimitConfig bounds the forecast endpoint per client IP.
type RateLimitConfig struct {
	Enabled      bool
	Capacity     float64
	RefillPerSec float64
}

// HousingHandler serves the dashboard API: region listings, price history,
// forecasts, statistics, and the reload/notification surface.
type HousingHandler struct {
	logger     *applogger.Logger
	store      domrepo.SeriesStore
	queries    *usecase.QueryService
	forecasts  *usecase.ForecastService
	reloader   *usecase.Reloader
	hub        *stream.Hub // optional
	limiter    *ratelimit.Limiter
	rate       RateLimitConfig
	modelReady func() bool
}

// NewHousingHandler creates the handler. hub may be nil; modelReady reports
// whether the forecast path is fully serviceable.
func NewHousingHandler(
	logger *applogger.Logger,
	store domrepo.SeriesStore,
	queries *usecase.QueryService,
	forecasts *usecase.ForecastService,
	reloader *usecase.Reloader,
	hub *stream.Hub,
	rate RateLimitConfig,
	modelReady func() bool,
) *HousingHandler {
	return &HousingHandler{
		logger:     logger,
		store:      store,
		queries:    queries,
		forecasts:  forecasts,
		reloader:   reloader,
		hub:        hub,
		limiter:    ratelimit.New(),
		rate:       rate,
		modelReady: modelReady,
	}
}

// RegisterRoutes registers all API routes on the Echo instance.
func (h *HousingHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/regions", h.Regions)
	g.GET("/prices", h.Prices)
	g.GET("/predict", h.Predict)
	g.GET("/region/:region_id", h.RegionDetail)
	g.GET("/statistics", h.Statistics)
	g.POST("/reload", h.Reload)
	if h.hub != nil {
		g.GET("/ws", h.Stream)
	}
}

// Health reports process liveness plus dataset and model readiness. Always
// 200; readiness lives in the payload so dashboards can render partial
// states.
func (h *HousingHandler) Health(c echo.Context) error {
	modelLoaded := false
	if h.modelReady != nil {
		modelLoaded = h.modelReady()
	}
	return xhttp.SuccessResponse(c, models.HealthResponse{
		Status:      "ok",
		DataLoaded:  h.store.Loaded(),
		ModelLoaded: modelLoaded,
	})
}

// Regions lists all known regions ordered by size rank.
func (h *HousingHandler) Regions(c echo.Context) error {
	if !h.store.Loaded() {
		return xhttp.ErrorResponse(c, xhttp.DataNotLoadedError())
	}
	return xhttp.SuccessResponse(c, models.RegionsResponse{Regions: h.queries.Regions()})
}

// Prices returns a region's price history, optionally filtered by an
// inclusive date range. An unknown region or an empty filter result yields
// an empty payload rather than 404 so dashboard charts degrade to blank.
func (h *HousingHandler) Prices(c echo.Context) error {
	if !h.store.Loaded() {
		return xhttp.ErrorResponse(c, xhttp.DataNotLoadedError())
	}

	var req models.PricesRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	resp, err := h.queries.Prices(req)
	if err != nil {
		if errors.Is(err, domrepo.ErrRegionNotFound) {
			return xhttp.SuccessResponse(c, models.PricesResponse{
				Dates:  []string{},
				Prices: []float64{},
			})
		}
		return h.queryError(c, err)
	}
	return xhttp.SuccessResponse(c, resp)
}

// Predict returns a multi-step price forecast for a region.
func (h *HousingHandler) Predict(c echo.Context) error {
	if !h.store.Loaded() {
		return xhttp.ErrorResponse(c, xhttp.DataNotLoadedError())
	}

	if h.rate.Enabled && !h.limiter.Allow(c.RealIP(), h.rate.Capacity, h.rate.RefillPerSec) {
		return xhttp.TooManyRequestsResponse(c)
	}

	var req models.PredictRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	res, err := h.forecasts.Forecast(c.Request().Context(), models.ForecastRequest{
		RegionID:          req.RegionID,
		Horizon:           req.MonthsAhead,
		IncludeConfidence: req.IncludeConfidence,
	}, req.NoCache)
	if err != nil {
		switch {
		case errors.Is(err, domrepo.ErrRegionNotFound):
			return xhttp.ErrorResponse(c, xhttp.NotFoundErrorf("region %s not found", req.RegionID))
		case errors.Is(err, forecast.ErrModelUnavailable):
			return xhttp.ErrorResponse(c, xhttp.ModelUnavailableError())
		default:
			h.logger.Error("forecast failed",
				applogger.String("region_id", req.RegionID),
				applogger.Error(err),
			)
			return xhttp.ErrorResponse(c, xhttp.ComputationError("forecast failed"))
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// RegionDetail returns metadata for a single region.
func (h *HousingHandler) RegionDetail(c echo.Context) error {
	if !h.store.Loaded() {
		return xhttp.ErrorResponse(c, xhttp.DataNotLoadedError())
	}

	regionID := c.Param("region_id")
	detail, err := h.queries.RegionDetail(regionID)
	if err != nil {
		if errors.Is(err, domrepo.ErrRegionNotFound) {
			return xhttp.ErrorResponse(c, xhttp.NotFoundErrorf("region %s not found", regionID))
		}
		return h.queryError(c, err)
	}
	return xhttp.SuccessResponse(c, detail)
}

// Statistics returns descriptive statistics for a region's filtered prices.
func (h *HousingHandler) Statistics(c echo.Context) error {
	if !h.store.Loaded() {
		return xhttp.ErrorResponse(c, xhttp.DataNotLoadedError())
	}

	var req models.StatisticsRequest
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.ValidationErrorResponse(c, verr)
	}

	stats, err := h.queries.Statistics(req)
	if err != nil {
		if errors.Is(err, domrepo.ErrRegionNotFound) {
			return xhttp.ErrorResponse(c, xhttp.NotFoundErrorf("region %s not found", req.RegionID))
		}
		return h.queryError(c, err)
	}
	return xhttp.SuccessResponse(c, stats)
}

// Reload rebuilds the dataset from the configured source. Heavy but
// idempotent; intended for operators and the ingestion pipeline.
func (h *HousingHandler) Reload(c echo.Context) error {
	if err := h.reloader.Reload(c.Request().Context()); err != nil {
		h.logger.Error("reload failed", applogger.Error(err))
		return xhttp.ErrorResponse(c, xhttp.InternalError("reload failed"))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":  "reloaded",
		"regions": h.store.Len(),
	})
}

// Stream upgrades to a WebSocket and subscribes the client to dataset
// events.
func (h *HousingHandler) Stream(c echo.Context) error {
	return h.hub.Serve(c.Response(), c.Request())
}

func (h *HousingHandler) queryError(c echo.Context, err error) error {
	if errors.Is(err, usecase.ErrInvalidDate) {
		return xhttp.ErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	h.logger.Error("query failed", applogger.Error(err))
	return xhttp.ErrorResponse(c, xhttp.ComputationError("query failed"))
}
