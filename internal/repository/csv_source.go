package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	"HomeCast/pkg/util"
)

// Leading metadata columns in the wide-format dataset; everything after is
// one column per month.
const metaColumns = 5

// CSVSeriesSource loads the wide-format housing dataset (one row per region,
// one column per month) and normalizes it into per-region series.
//
// Fill order for missing prices:
//  1. linear interpolation of interior gaps, per region
//  2. remaining edge gaps from the (RegionType, Year) cohort mean
//  3. zero for anything still unresolved
//
// Regions with no history at all stay in the dataset: cohort-filled when a
// cohort exists, otherwise kept as an empty series.
type CSVSeriesSource struct {
	path string
}

// NewCSVSeriesSource creates a source reading from the given file path.
func NewCSVSeriesSource(path string) *CSVSeriesSource {
	return &CSVSeriesSource{path: path}
}

type rawRegion struct {
	meta   models.RegionMeta
	values []*float64 // index-aligned with dates, nil = missing
}

// LoadSeries reads and normalizes the whole dataset.
func (s *CSVSeriesSource) LoadSeries(ctx context.Context) (map[string]*models.RegionSeries, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) <= metaColumns {
		return nil, fmt.Errorf("dataset has no date columns")
	}

	dates := make([]time.Time, 0, len(header)-metaColumns)
	for _, col := range header[metaColumns:] {
		d, ok := util.ParseDate(col)
		if !ok {
			return nil, fmt.Errorf("invalid date column %q", col)
		}
		// The store serves series in column order; the header must already
		// be strictly ascending.
		if n := len(dates); n > 0 && !d.After(dates[n-1]) {
			return nil, fmt.Errorf("date column %q out of order after %q", col, util.FormatDate(dates[n-1]))
		}
		dates = append(dates, d)
	}

	var regions []rawRegion
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := r.Read()
		if err != nil {
			break
		}
		if len(rec) < metaColumns {
			continue
		}

		sizeRank, _ := strconv.Atoi(rec[1])
		raw := rawRegion{
			meta: models.RegionMeta{
				RegionID:   rec[0],
				SizeRank:   sizeRank,
				RegionName: rec[2],
				RegionType: rec[3],
				StateName:  rec[4],
			},
			values: make([]*float64, len(dates)),
		}
		for i := range dates {
			col := metaColumns + i
			if col >= len(rec) {
				break
			}
			if v, err := strconv.ParseFloat(rec[col], 64); err == nil {
				val := v
				raw.values[i] = &val
			}
		}
		regions = append(regions, raw)
	}

	// Pass 1: interpolate interior gaps, then pool values into
	// (type, year) cohorts for the fallback fill.
	cohortSum := make(map[string]float64)
	cohortCount := make(map[string]int)
	for i := range regions {
		interpolate(regions[i].values)
		for j, v := range regions[i].values {
			if v == nil {
				continue
			}
			key := cohortKey(regions[i].meta.RegionType, dates[j].Year())
			cohortSum[key] += *v
			cohortCount[key]++
		}
	}

	// Pass 2: cohort fill, zero fill, assemble series.
	out := make(map[string]*models.RegionSeries, len(regions))
	for _, raw := range regions {
		points := make([]models.PricePoint, 0, len(dates))
		resolved := false
		for j, v := range raw.values {
			var price float64
			switch {
			case v != nil:
				price = *v
				resolved = true
			default:
				key := cohortKey(raw.meta.RegionType, dates[j].Year())
				if n := cohortCount[key]; n > 0 {
					price = cohortSum[key] / float64(n)
					resolved = true
				}
			}
			points = append(points, models.PricePoint{Date: dates[j], Price: price})
		}
		if !resolved {
			// No history and no cohort anywhere: keep the region, empty.
			points = nil
		}
		out[raw.meta.RegionID] = &models.RegionSeries{Meta: raw.meta, Points: points}
	}

	return out, nil
}

func cohortKey(regionType string, year int) string {
	return regionType + ":" + strconv.Itoa(year)
}

// interpolate fills interior nil gaps linearly between the surrounding known
// values. Leading and trailing gaps stay nil for the cohort fallback.
func interpolate(values []*float64) {
	prev := -1
	for i, v := range values {
		if v == nil {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			left, right := *values[prev], *v
			span := float64(i - prev)
			for k := prev + 1; k < i; k++ {
				filled := left + (right-left)*float64(k-prev)/span
				values[k] = &filled
			}
		}
		prev = i
	}
}

var _ domrepo.SeriesSource = (*CSVSeriesSource)(nil)
