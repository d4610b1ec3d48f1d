package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
)

type fakeSource struct {
	series map[string]*models.RegionSeries
	err    error
}

func (f *fakeSource) LoadSeries(context.Context) (map[string]*models.RegionSeries, error) {
	return f.series, f.err
}

func seriesFixture() map[string]*models.RegionSeries {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return map[string]*models.RegionSeries{
		"1": {
			Meta:   models.RegionMeta{RegionID: "1", RegionName: "Seattle", SizeRank: 20},
			Points: []models.PricePoint{{Date: date, Price: 800000}},
		},
		"2": {
			Meta:   models.RegionMeta{RegionID: "2", RegionName: "United States", SizeRank: 0},
			Points: []models.PricePoint{{Date: date, Price: 350000}},
		},
		"3": {
			Meta:   models.RegionMeta{RegionID: "3", RegionName: "Tacoma", SizeRank: 20},
			Points: []models.PricePoint{{Date: date, Price: 500000}},
		},
	}
}

func TestStoreUnloaded(t *testing.T) {
	s := NewMemorySeriesStore()

	if s.Loaded() {
		t.Fatalf("new store must not report loaded")
	}
	if s.Len() != 0 {
		t.Fatalf("new store length %d, want 0", s.Len())
	}
	if _, err := s.Get("1"); !errors.Is(err, domrepo.ErrRegionNotFound) {
		t.Fatalf("expected ErrRegionNotFound, got %v", err)
	}
	if m := s.ListMetadata(); m != nil {
		t.Fatalf("expected nil metadata before load, got %v", m)
	}
}

func TestStoreReloadAndGet(t *testing.T) {
	s := NewMemorySeriesStore()
	if err := s.Reload(context.Background(), &fakeSource{series: seriesFixture()}); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if !s.Loaded() || s.Len() != 3 {
		t.Fatalf("loaded=%v len=%d after reload", s.Loaded(), s.Len())
	}

	rs, err := s.Get("1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rs.Meta.RegionName != "Seattle" {
		t.Fatalf("unexpected region: %+v", rs.Meta)
	}

	if _, err := s.Get("nope"); !errors.Is(err, domrepo.ErrRegionNotFound) {
		t.Fatalf("expected ErrRegionNotFound, got %v", err)
	}
}

func TestStoreMetadataOrder(t *testing.T) {
	s := NewMemorySeriesStore()
	if err := s.Reload(context.Background(), &fakeSource{series: seriesFixture()}); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	metas := s.ListMetadata()
	if len(metas) != 3 {
		t.Fatalf("expected 3 metas, got %d", len(metas))
	}
	// SizeRank ascending, region id as tiebreak.
	if metas[0].RegionID != "2" || metas[1].RegionID != "1" || metas[2].RegionID != "3" {
		t.Fatalf("unexpected order: %v %v %v", metas[0].RegionID, metas[1].RegionID, metas[2].RegionID)
	}
}

func TestStoreReloadFailureKeepsSnapshot(t *testing.T) {
	s := NewMemorySeriesStore()
	if err := s.Reload(context.Background(), &fakeSource{series: seriesFixture()}); err != nil {
		t.Fatalf("seed reload failed: %v", err)
	}

	err := s.Reload(context.Background(), &fakeSource{err: errors.New("source down")})
	if err == nil {
		t.Fatalf("expected reload error")
	}

	// The previous dataset keeps serving.
	if !s.Loaded() || s.Len() != 3 {
		t.Fatalf("failed reload must not drop the dataset: loaded=%v len=%d", s.Loaded(), s.Len())
	}
}
