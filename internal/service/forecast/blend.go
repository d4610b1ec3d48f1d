package forecast

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"HomeCast/internal/domain/models"
	domsvc "HomeCast/internal/domain/service"
)

// Blend tuning.
const (
	statsWindow      = 12
	perturbationStd  = 0.005 // 0.5% of baseline
	microTrendFactor = 0.1
	ciGrowth         = 0.3
	ciLowerFloor     = 0.85
)

// actualBlendWeights is the trust placed in the last known actual price for
// the first steps; it strictly decreases and hits zero from step 3 on.
var actualBlendWeights = []float64{0.7, 0.4, 0.2}

// BlendStrategy is the statistics-only forecast: a weighted baseline of
// trailing means nudged by a normalized linear trend and a small seeded
// perturbation. No model call, so it stays available when the predictor
// never loaded.
type BlendStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewBlendStrategy creates the statistical blend strategy. A non-zero seed
// makes the perturbation deterministic; seed 0 seeds from the clock.
func NewBlendStrategy(seed int64) *BlendStrategy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &BlendStrategy{rng: rand.New(rand.NewSource(seed))}
}

// Name returns the strategy identifier used in config and metrics.
func (s *BlendStrategy) Name() string { return "blend" }

// Forecast produces horizon monthly predictions for the series. The horizon
// must already be clamped by the caller.
func (s *BlendStrategy) Forecast(_ context.Context, series *models.RegionSeries, horizon int, includeConfidence bool) (*models.ForecastResult, error) {
	if series.Empty() {
		return nil, ErrEmptySeries
	}

	prices := series.Prices()
	recent := trailing(prices, statsWindow)

	mean12 := mean(recent)
	std12 := stdDev(recent)
	mean6 := mean(trailing(prices, 6))
	mean3 := mean(trailing(prices, 3))

	trendCoef := normalizedSlope(recent, mean12)
	baseline := 0.4*mean3 + 0.3*mean6 + 0.3*mean12
	lastPrice := series.LastPoint().Price

	preds := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		noise := s.gauss() * perturbationStd * baseline
		micro := trendCoef * microTrendFactor * float64(i) * baseline * 0.01
		p := baseline + noise + micro

		if i < len(actualBlendWeights) {
			w := actualBlendWeights[i]
			p = w*lastPrice + (1-w)*p
		}
		preds[i] = p
	}

	result := &models.ForecastResult{
		RegionID:    series.Meta.RegionID,
		RegionName:  series.Meta.RegionName,
		StateName:   series.Meta.StateName,
		Dates:       futureDates(series, horizon),
		Predictions: preds,
	}

	if includeConfidence {
		cis := make([]models.ConfidenceInterval, horizon)
		for i, p := range preds {
			hw := std12 * (1 + ciGrowth*float64(i))
			lower := p - hw
			if floor := p * ciLowerFloor; lower < floor {
				lower = floor
			}
			cis[i] = models.ConfidenceInterval{lower, p + hw}
		}
		result.ConfidenceIntervals = cis
	}

	return result, nil
}

func (s *BlendStrategy) gauss() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.NormFloat64()
}

// normalizedSlope fits a least-squares line over the window and expresses
// the slope as a fraction of the window mean, clamped to [-1, 1].
func normalizedSlope(xs []float64, windowMean float64) float64 {
	n := len(xs)
	if n < 2 || windowMean == 0 {
		return 0
	}

	// x = 0..n-1
	xMean := float64(n-1) / 2
	var num, den float64
	for i, y := range xs {
		dx := float64(i) - xMean
		num += dx * (y - windowMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}

	coef := (num / den) / windowMean
	if coef > 1 {
		coef = 1
	}
	if coef < -1 {
		coef = -1
	}
	return coef
}

var _ domsvc.ForecastStrategy = (*BlendStrategy)(nil)
