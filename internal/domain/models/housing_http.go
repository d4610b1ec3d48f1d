package models

// Requests for housing HTTP endpoints. Defined in domain for consistency and reuse.

type PricesRequest struct {
	RegionID  string `query:"region_id" json:"region_id" validate:"required"`
	StartDate string `query:"start_date" json:"start_date"`
	EndDate   string `query:"end_date" json:"end_date"`
	NoCache   bool   `query:"no_cache" json:"no_cache"`
}

type PredictRequest struct {
	RegionID          string `query:"region_id" json:"region_id" validate:"required"`
	MonthsAhead       int    `query:"months_ahead" json:"months_ahead" default:"5"`
	IncludeConfidence bool   `query:"include_confidence" json:"include_confidence"`
	NoCache           bool   `query:"no_cache" json:"no_cache"`
}

type StatisticsRequest struct {
	RegionID  string `query:"region_id" json:"region_id" validate:"required"`
	StartDate string `query:"start_date" json:"start_date"`
	EndDate   string `query:"end_date" json:"end_date"`
	NoCache   bool   `query:"no_cache" json:"no_cache"`
}

// HealthResponse is the /api/health payload.
type HealthResponse struct {
	Status      string `json:"status"`
	DataLoaded  bool   `json:"data_loaded"`
	ModelLoaded bool   `json:"model_loaded"`
}

// RegionsResponse is the /api/regions payload.
type RegionsResponse struct {
	Regions []RegionMeta `json:"regions"`
}

// PricesResponse is the /api/prices payload. Fields stay empty (not null)
// when the region has no matching points.
type PricesResponse struct {
	RegionName string    `json:"region_name"`
	RegionType string    `json:"region_type"`
	StateName  string    `json:"state_name"`
	Dates      []string  `json:"dates"`
	Prices     []float64 `json:"prices"`
}

// RegionDetailResponse is the /api/region/:region_id payload.
type RegionDetailResponse struct {
	RegionID   string `json:"region_id"`
	RegionName string `json:"region_name"`
	RegionType string `json:"region_type"`
	StateName  string `json:"state_name"`
	SizeRank   int    `json:"size_rank"`
}

// ReloadEvent is published to dashboard clients and the events topic after a
// successful data reload.
type ReloadEvent struct {
	Type       string `json:"type"`
	Regions    int    `json:"regions"`
	ReloadedAt string `json:"reloaded_at"`
}
