package usecase

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	icache "HomeCast/internal/service/cache"
	"HomeCast/pkg/util"
)

// ErrInvalidDate is returned for a date filter that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// QueryService answers historical questions: region listings, price slices,
// descriptive statistics. Results are memoized because the dataset only
// changes on reload.
type QueryService struct {
	store   domrepo.SeriesStore
	cache   *icache.TTLCache
	ttl     time.Duration
	metrics domrepo.Metrics
}

// NewQueryService creates the query service.
func NewQueryService(store domrepo.SeriesStore, cache *icache.TTLCache, ttl time.Duration, metrics domrepo.Metrics) *QueryService {
	if ttl <= 0 {
		ttl = icache.DefaultTTL
	}
	return &QueryService{store: store, cache: cache, ttl: ttl, metrics: metrics}
}

// Regions lists region metadata ordered by SizeRank ascending.
func (q *QueryService) Regions() []models.RegionMeta {
	return q.store.ListMetadata()
}

// RegionDetail returns the metadata for one region.
func (q *QueryService) RegionDetail(regionID string) (*models.RegionDetailResponse, error) {
	rs, err := q.store.Get(regionID)
	if err != nil {
		return nil, err
	}
	return &models.RegionDetailResponse{
		RegionID:   rs.Meta.RegionID,
		RegionName: rs.Meta.RegionName,
		RegionType: rs.Meta.RegionType,
		StateName:  rs.Meta.StateName,
		SizeRank:   rs.Meta.SizeRank,
	}, nil
}

// Prices returns the region's price history filtered to the inclusive
// [start, end] range. ErrRegionNotFound means the region is unknown or the
// filter matched nothing.
func (q *QueryService) Prices(req models.PricesRequest) (*models.PricesResponse, error) {
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	key := icache.QueryKey{Kind: "prices", RegionID: req.RegionID, StartDate: req.StartDate, EndDate: req.EndDate}
	resp, hit, err := icache.GetOrCompute(q.cache, key.String(), q.ttl, req.NoCache, func() (*models.PricesResponse, error) {
		rs, err := q.store.Get(req.RegionID)
		if err != nil {
			return nil, err
		}
		points := rs.Slice(start, end)
		if len(points) == 0 {
			return nil, domrepo.ErrRegionNotFound
		}

		dates := make([]string, len(points))
		prices := make([]float64, len(points))
		for i, p := range points {
			dates[i] = util.FormatDate(p.Date)
			prices[i] = p.Price
		}
		return &models.PricesResponse{
			RegionName: rs.Meta.RegionName,
			RegionType: rs.Meta.RegionType,
			StateName:  rs.Meta.StateName,
			Dates:      dates,
			Prices:     prices,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	q.recordCache(hit)
	return resp, nil
}

// Statistics computes descriptive statistics over the filtered price vector.
func (q *QueryService) Statistics(req models.StatisticsRequest) (*models.SeriesStats, error) {
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	key := icache.QueryKey{Kind: "stats", RegionID: req.RegionID, StartDate: req.StartDate, EndDate: req.EndDate}
	stats, hit, err := icache.GetOrCompute(q.cache, key.String(), q.ttl, req.NoCache, func() (*models.SeriesStats, error) {
		rs, err := q.store.Get(req.RegionID)
		if err != nil {
			return nil, err
		}
		points := rs.Slice(start, end)
		if len(points) == 0 {
			return nil, domrepo.ErrRegionNotFound
		}

		prices := make([]float64, len(points))
		for i, p := range points {
			prices[i] = p.Price
		}
		return describe(prices), nil
	})
	if err != nil {
		return nil, err
	}
	q.recordCache(hit)
	return stats, nil
}

// InvalidateRegion drops cached query results for one region.
func (q *QueryService) InvalidateRegion(regionID string) {
	q.cache.Invalidate(icache.RegionPrefix("prices", regionID))
	q.cache.Invalidate(icache.RegionPrefix("stats", regionID))
}

// ResetCache drops everything. Called on full data reload.
func (q *QueryService) ResetCache() {
	q.cache.Reset()
}

func (q *QueryService) recordCache(hit bool) {
	if q.metrics == nil {
		return
	}
	if hit {
		q.metrics.RecordCache("query", "hit")
	} else {
		q.metrics.RecordCache("query", "miss")
	}
}

func parseRange(startStr, endStr string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startStr != "" {
		t, ok := util.ParseDate(startStr)
		if !ok {
			return nil, nil, fmt.Errorf("%w: start_date %q", ErrInvalidDate, startStr)
		}
		start = &t
	}
	if endStr != "" {
		t, ok := util.ParseDate(endStr)
		if !ok {
			return nil, nil, fmt.Errorf("%w: end_date %q", ErrInvalidDate, endStr)
		}
		end = &t
	}
	return start, end, nil
}

// describe computes the statistics block over a non-empty price vector.
// Standard deviation is population (divide by n); skewness is the third
// standardized moment.
func describe(xs []float64) *models.SeriesStats {
	n := float64(len(xs))

	sum := 0.0
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		sum += x
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	m := sum / n

	var m2, m3 float64
	for _, x := range xs {
		d := x - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	sd := math.Sqrt(m2)

	skew := 0.0
	if sd > 0 {
		skew = m3 / (sd * sd * sd)
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	return &models.SeriesStats{
		Mean:         m,
		Median:       quantile(sorted, 0.5),
		StdDev:       sd,
		Min:          lo,
		Max:          hi,
		Percentile90: quantile(sorted, 0.9),
		Skewness:     skew,
	}
}

// quantile interpolates linearly between order statistics, matching the
// common numpy default.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}
