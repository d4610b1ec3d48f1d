package repository

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	applogger "HomeCast/pkg/logger"
)

// snapshot is one immutable build of the dataset. Readers always see a whole
// snapshot; Reload swaps in a replacement with a single pointer store.
type snapshot struct {
	series map[string]*models.RegionSeries
	metas  []models.RegionMeta
}

// MemorySeriesStore keeps the full per-region price history in memory for
// O(1) region lookup. Rebuilds run only on explicit Reload, never
// per-request.
type MemorySeriesStore struct {
	snap   atomic.Pointer[snapshot]
	logger *applogger.Logger
}

// NewMemorySeriesStore creates an empty, unloaded store.
func NewMemorySeriesStore() *MemorySeriesStore {
	return &MemorySeriesStore{}
}

// SetLogger attaches a logger for reload reporting.
func (s *MemorySeriesStore) SetLogger(l *applogger.Logger) { s.logger = l }

// Get returns the series for a region id.
func (s *MemorySeriesStore) Get(regionID string) (*models.RegionSeries, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, domrepo.ErrRegionNotFound
	}
	rs, ok := snap.series[regionID]
	if !ok {
		return nil, domrepo.ErrRegionNotFound
	}
	return rs, nil
}

// ListMetadata returns region metadata ordered by SizeRank ascending.
func (s *MemorySeriesStore) ListMetadata() []models.RegionMeta {
	snap := s.snap.Load()
	if snap == nil {
		return nil
	}
	return snap.metas
}

// Len returns the number of regions in the current snapshot.
func (s *MemorySeriesStore) Len() int {
	snap := s.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.series)
}

// Loaded reports whether a dataset has been installed.
func (s *MemorySeriesStore) Loaded() bool {
	return s.snap.Load() != nil
}

// Reload builds a fresh snapshot from the source and installs it atomically.
// In-flight readers keep the old snapshot until their request completes.
func (s *MemorySeriesStore) Reload(ctx context.Context, source domrepo.SeriesSource) error {
	series, err := source.LoadSeries(ctx)
	if err != nil {
		return fmt.Errorf("load series: %w", err)
	}

	metas := make([]models.RegionMeta, 0, len(series))
	for _, rs := range series {
		metas = append(metas, rs.Meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].SizeRank != metas[j].SizeRank {
			return metas[i].SizeRank < metas[j].SizeRank
		}
		return metas[i].RegionID < metas[j].RegionID
	})

	s.snap.Store(&snapshot{series: series, metas: metas})

	if s.logger != nil {
		s.logger.Info("series store reloaded", applogger.Int("regions", len(series)))
	}
	return nil
}

var _ domrepo.SeriesStore = (*MemorySeriesStore)(nil)
