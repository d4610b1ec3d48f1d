package models

// ForecastRequest identifies one forecast computation. It doubles as the
// cache key for forecast results.
type ForecastRequest struct {
	RegionID          string
	Horizon           int
	IncludeConfidence bool
}

// ConfidenceInterval is a (lower, upper) bound pair around one prediction.
// Marshals as a two-element array to match the dashboard contract.
type ConfidenceInterval [2]float64

// Lower returns the lower bound.
func (ci ConfidenceInterval) Lower() float64 { return ci[0] }

// Upper returns the upper bound.
func (ci ConfidenceInterval) Upper() float64 { return ci[1] }

// ForecastResult is an immutable multi-step forecast snapshot. Dates and
// Predictions always have length equal to the clamped horizon;
// ConfidenceIntervals is nil unless requested.
type ForecastResult struct {
	RegionID            string               `json:"region_id"`
	RegionName          string               `json:"region_name"`
	StateName           string               `json:"state_name"`
	Dates               []string             `json:"dates"`
	Predictions         []float64            `json:"predictions"`
	ConfidenceIntervals []ConfidenceInterval `json:"confidence_intervals,omitempty"`
}

// SeriesStats holds descriptive statistics over a filtered price vector.
type SeriesStats struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	StdDev       float64 `json:"stdDev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Percentile90 float64 `json:"percentile90"`
	Skewness     float64 `json:"skewness"`
}
