package cache

import "fmt"

// Typed composite cache keys. Each renders to a stable string so the same
// request parameters always hit the same entry.

// ForecastKey identifies one forecast computation.
type ForecastKey struct {
	RegionID          string
	Horizon           int
	IncludeConfidence bool
}

func (k ForecastKey) String() string {
	return fmt.Sprintf("forecast:%s:%d:%t", k.RegionID, k.Horizon, k.IncludeConfidence)
}

// QueryKey identifies one region query (price slice or statistics).
type QueryKey struct {
	Kind      string // "prices" or "stats"
	RegionID  string
	StartDate string
	EndDate   string
}

func (k QueryKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Kind, k.RegionID, k.StartDate, k.EndDate)
}

// RegionPrefix returns the invalidation prefix covering every entry of the
// given kind for one region.
func RegionPrefix(kind, regionID string) string {
	return kind + ":" + regionID + ":"
}
