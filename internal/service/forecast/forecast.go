package forecast

import (
	"errors"
	"math"

	"HomeCast/internal/domain/models"
	"HomeCast/pkg/util"
)

// Horizon bounds enforced server-side regardless of the requested value.
const (
	MinHorizon = 1
	MaxHorizon = 12
)

var (
	// ErrModelUnavailable marks a predictor load or inference failure. The
	// rollout strategy never falls back to the statistical blend on its own;
	// the caller surfaces this as a distinct error.
	ErrModelUnavailable = errors.New("prediction unavailable")

	// ErrEmptySeries marks a region with no usable price history.
	ErrEmptySeries = errors.New("empty price series")
)

// ClampHorizon bounds a requested horizon to [MinHorizon, MaxHorizon].
func ClampHorizon(h int) int {
	return util.Clamp(h, MinHorizon, MaxHorizon)
}

// futureDates generates horizon monthly dates following the last known one.
func futureDates(series *models.RegionSeries, horizon int) []string {
	last := series.LastPoint().Date
	out := make([]string, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = util.FormatDate(util.AddMonths(last, i+1))
	}
	return out
}

// trailing returns the last n values, or all of them when fewer exist.
func trailing(xs []float64, n int) []float64 {
	if len(xs) > n {
		return xs[len(xs)-n:]
	}
	return xs
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
