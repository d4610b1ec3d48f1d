package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"HomeCast/internal/domain/models"
)

func testSeries(prices []float64) *models.RegionSeries {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = models.PricePoint{Date: start.AddDate(0, i, 0), Price: p}
	}
	return &models.RegionSeries{
		Meta: models.RegionMeta{
			RegionID:   "102001",
			RegionName: "United States",
			RegionType: "country",
			StateName:  "",
			SizeRank:   0,
		},
		Points: points,
	}
}

func flatSeries(n int, price float64) *models.RegionSeries {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = price
	}
	return testSeries(prices)
}

func TestBlendDeterministicWithSeed(t *testing.T) {
	series := testSeries([]float64{100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210})

	a, err := NewBlendStrategy(42).Forecast(context.Background(), series, 6, true)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	b, err := NewBlendStrategy(42).Forecast(context.Background(), series, 6, true)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	for i := range a.Predictions {
		if a.Predictions[i] != b.Predictions[i] {
			t.Fatalf("step %d diverged: %v vs %v", i, a.Predictions[i], b.Predictions[i])
		}
	}
}

func TestBlendFlatSeries(t *testing.T) {
	res, err := NewBlendStrategy(7).Forecast(context.Background(), flatSeries(24, 100), 3, true)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	// Flat history: baseline 100, only the seeded perturbation moves the
	// prediction, and that is bounded to a fraction of a percent in practice.
	for i, p := range res.Predictions {
		if math.Abs(p-100) > 5 {
			t.Fatalf("step %d prediction %v too far from flat baseline", i, p)
		}
	}

	// Zero trailing std collapses the interval onto the prediction.
	for i, ci := range res.ConfidenceIntervals {
		if ci.Lower() != res.Predictions[i] || ci.Upper() != res.Predictions[i] {
			t.Fatalf("step %d interval %v should collapse onto prediction %v", i, ci, res.Predictions[i])
		}
	}
}

func TestBlendResultShape(t *testing.T) {
	series := testSeries([]float64{300, 310, 305, 320, 330, 340})

	res, err := NewBlendStrategy(1).Forecast(context.Background(), series, 5, false)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	if len(res.Dates) != 5 || len(res.Predictions) != 5 {
		t.Fatalf("expected 5 dates and predictions, got %d/%d", len(res.Dates), len(res.Predictions))
	}
	if res.ConfidenceIntervals != nil {
		t.Fatalf("confidence intervals not requested but present")
	}
	if res.Dates[0] != "2022-07-01" {
		t.Fatalf("first forecast date %s, want 2022-07-01", res.Dates[0])
	}
	if res.RegionID != "102001" || res.RegionName != "United States" {
		t.Fatalf("region identity not carried: %+v", res)
	}
}

func TestBlendConfidenceLowerFloor(t *testing.T) {
	// Volatile history gives a wide raw interval; the lower bound must never
	// drop below 85% of the prediction.
	series := testSeries([]float64{100, 300, 90, 280, 110, 320, 95, 290, 105, 310, 100, 300})

	res, err := NewBlendStrategy(3).Forecast(context.Background(), series, 6, true)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	for i, ci := range res.ConfidenceIntervals {
		p := res.Predictions[i]
		if ci.Lower() < p*0.85-1e-9 {
			t.Fatalf("step %d lower bound %v below floor %v", i, ci.Lower(), p*0.85)
		}
		if ci.Upper() < p {
			t.Fatalf("step %d upper bound %v below prediction %v", i, ci.Upper(), p)
		}
	}
}

func TestBlendEarlyStepsAnchorOnLastPrice(t *testing.T) {
	// Last actual far above the trailing means: the first step must sit much
	// closer to the actual than the third, and weights strictly decrease.
	series := testSeries([]float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 200})

	res, err := NewBlendStrategy(5).Forecast(context.Background(), series, 4, false)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	last := 200.0
	d0 := math.Abs(res.Predictions[0] - last)
	d1 := math.Abs(res.Predictions[1] - last)
	d2 := math.Abs(res.Predictions[2] - last)
	if !(d0 < d1 && d1 < d2) {
		t.Fatalf("anchoring should fade with the step: %v %v %v", d0, d1, d2)
	}
}

func TestBlendMonthEndSeriesStaysOnMonthEnds(t *testing.T) {
	// Month-end history must produce month-end forecast dates, one per
	// calendar month, without skipping short months.
	points := make([]models.PricePoint, 13)
	for i := range points {
		// Day zero of the following month is the last day of month i.
		points[i] = models.PricePoint{
			Date:  time.Date(2023, time.February+time.Month(i), 0, 0, 0, 0, 0, time.UTC),
			Price: 100 + float64(i),
		}
	}
	series := &models.RegionSeries{
		Meta:   models.RegionMeta{RegionID: "394913", RegionName: "New York, NY"},
		Points: points,
	}
	if got := points[len(points)-1].Date.Format("2006-01-02"); got != "2024-01-31" {
		t.Fatalf("fixture last point %s, want 2024-01-31", got)
	}

	res, err := NewBlendStrategy(9).Forecast(context.Background(), series, 4, false)
	if err != nil {
		t.Fatalf("forecast failed: %v", err)
	}

	want := []string{"2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}
	for i, d := range res.Dates {
		if d != want[i] {
			t.Fatalf("forecast date %d = %s, want %s", i, d, want[i])
		}
	}
}

func TestBlendEmptySeries(t *testing.T) {
	_, err := NewBlendStrategy(1).Forecast(context.Background(), testSeries(nil), 3, false)
	if err != ErrEmptySeries {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestClampHorizon(t *testing.T) {
	if h := ClampHorizon(0); h != MinHorizon {
		t.Fatalf("expected %d, got %d", MinHorizon, h)
	}
	if h := ClampHorizon(-3); h != MinHorizon {
		t.Fatalf("expected %d, got %d", MinHorizon, h)
	}
	if h := ClampHorizon(20); h != MaxHorizon {
		t.Fatalf("expected %d, got %d", MaxHorizon, h)
	}
	if h := ClampHorizon(5); h != 5 {
		t.Fatalf("expected 5, got %d", h)
	}
}
