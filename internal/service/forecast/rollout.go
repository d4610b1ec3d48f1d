package forecast

import (
	"context"
	"fmt"
	"math"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	domsvc "HomeCast/internal/domain/service"
)

// Rollout tuning. The raw model output is treated as a proposal, not the
// final answer: post-hoc constraints keep it inside what the dashboard's
// monthly housing data can plausibly do.
const (
	maxMonthlyDecline = 0.98 // floor: at most 2% decline month over month
	smoothingAlpha    = 0.7
	trendWindow       = 12
	baseTrendWeight   = 0.2
	trendWeightStep   = 0.05
	maxTrendWeight    = 0.7
	baseUncertainty   = 0.05
	uncertaintyStep   = 0.01
)

// RolloutStrategy is the model-driven forecast: autoregressive rollout of
// the sequence predictor over min/max-scaled history, then a guardrail
// floor, exponential smoothing, and a trend blend.
type RolloutStrategy struct {
	predictor domrepo.SequencePredictor
}

// NewRolloutStrategy creates the model rollout strategy.
func NewRolloutStrategy(p domrepo.SequencePredictor) *RolloutStrategy {
	return &RolloutStrategy{predictor: p}
}

// Name returns the strategy identifier used in config and metrics.
func (s *RolloutStrategy) Name() string { return "rollout" }

// Forecast produces horizon monthly predictions for the series. The horizon
// must already be clamped by the caller.
func (s *RolloutStrategy) Forecast(ctx context.Context, series *models.RegionSeries, horizon int, includeConfidence bool) (*models.ForecastResult, error) {
	if series.Empty() {
		return nil, ErrEmptySeries
	}
	if s.predictor == nil || !s.predictor.Ready() {
		return nil, ErrModelUnavailable
	}

	prices := series.Prices()
	window := s.predictor.WindowSize()

	// Trailing window, padded at the front with the earliest known price
	// when history is shorter than the model window.
	seq := make([]float64, 0, window+horizon)
	if len(prices) < window {
		for i := 0; i < window-len(prices); i++ {
			seq = append(seq, prices[0])
		}
		seq = append(seq, prices...)
	} else {
		seq = append(seq, prices[len(prices)-window:]...)
	}

	// Min/max scaling uses the region's own full history, matching how the
	// model was fed during training.
	lo, hi := minMax(prices)
	span := hi - lo
	for i := range seq {
		seq[i] = scale(seq[i], lo, span)
	}

	// Autoregressive rollout: each prediction becomes part of the window
	// for the next step.
	scaled := make([]float64, 0, horizon)
	for i := 0; i < horizon; i++ {
		next, err := s.predictor.Predict(ctx, seq[len(seq)-window:])
		if err != nil {
			return nil, fmt.Errorf("%w: rollout step %d: %v", ErrModelUnavailable, i, err)
		}
		scaled = append(scaled, next)
		seq = append(seq, next)
	}

	preds := make([]float64, horizon)
	for i, v := range scaled {
		preds[i] = lo + v*span
	}

	// Guardrail: never trust more than a 2% monthly decline from the model.
	lastPrice := series.LastPoint().Price
	for i := range preds {
		floor := lastPrice * math.Pow(maxMonthlyDecline, float64(i+1))
		if preds[i] < floor {
			preds[i] = floor
		}
	}

	// Exponential smoothing across the floored sequence.
	for i := 1; i < len(preds); i++ {
		preds[i] = smoothingAlpha*preds[i] + (1-smoothingAlpha)*preds[i-1]
	}

	// Blend with a pure trend extrapolation from the trailing year, weight
	// shifting toward the trend at longer steps.
	trend := meanPctChange(trailing(prices, trendWindow))
	for i := range preds {
		w := baseTrendWeight + trendWeightStep*float64(i)
		if w > maxTrendWeight {
			w = maxTrendWeight
		}
		trendPrice := lastPrice * math.Pow(1+trend, float64(i+1))
		preds[i] = (1-w)*preds[i] + w*trendPrice
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
			u := baseUncertainty + uncertaintyStep*float64(i)
			cis[i] = models.ConfidenceInterval{p * (1 - u), p * (1 + u)}
		}
		result.ConfidenceIntervals = cis
	}

	return result, nil
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func scale(v, lo, span float64) float64 {
	if span == 0 {
		return 0
	}
	return (v - lo) / span
}

// meanPctChange averages consecutive percentage changes over the window.
func meanPctChange(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	n := 0
	for i := 1; i < len(xs); i++ {
		if xs[i-1] == 0 {
			continue
		}
		sum += (xs[i] - xs[i-1]) / xs[i-1]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

var _ domsvc.ForecastStrategy = (*RolloutStrategy)(nil)
