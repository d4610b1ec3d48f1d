package models

import "time"

// PricePoint is one observed monthly price for a region. Immutable once
// produced by ingestion.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// RegionMeta holds the immutable identity of a region. JSON field names
// match the upstream dataset columns and are served verbatim by /api/regions.
type RegionMeta struct {
	RegionID   string `json:"RegionID"`
	RegionName string `json:"RegionName"`
	RegionType string `json:"RegionType"`
	StateName  string `json:"StateName"`
	SizeRank   int    `json:"SizeRank"`
}

// RegionSeries owns the ordered price history for one region.
// Points are strictly ascending by date with no duplicates and no missing
// prices; ingestion guarantees this. A series is never mutated after build,
// only replaced wholesale on reload.
type RegionSeries struct {
	Meta   RegionMeta
	Points []PricePoint
}

// Empty reports whether the region has no usable price history.
func (s *RegionSeries) Empty() bool {
	return len(s.Points) == 0
}

// LastPoint returns the most recent point. Callers must check Empty first.
func (s *RegionSeries) LastPoint() PricePoint {
	return s.Points[len(s.Points)-1]
}

// Prices returns the price column of the series.
func (s *RegionSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// Slice returns the points within [start, end], endpoints inclusive.
// A nil bound leaves that side open.
func (s *RegionSeries) Slice(start, end *time.Time) []PricePoint {
	out := make([]PricePoint, 0, len(s.Points))
	for _, p := range s.Points {
		if start != nil && p.Date.Before(*start) {
			continue
		}
		if end != nil && p.Date.After(*end) {
			continue
		}
		out = append(out, p)
	}
	return out
}
