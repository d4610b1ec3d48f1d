package service

import (
	"context"

	"HomeCast/internal/domain/models"
)

// ForecastStrategy turns a region series and a clamped horizon into a
// multi-step forecast. The two production strategies are the model rollout
// and the pure statistical blend; both stay selectable because the dashboard
// shipped with each at different times.
type ForecastStrategy interface {
	Name() string
	Forecast(ctx context.Context, series *models.RegionSeries, horizon int, includeConfidence bool) (*models.ForecastResult, error)
}
