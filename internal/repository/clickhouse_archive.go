package repository

import (
	"context"
	"fmt"
	"time"

	"HomeCast/internal/domain/models"
	domrepo "HomeCast/internal/domain/repository"
	pkgch "HomeCast/pkg/clickhouse"
	applogger "HomeCast/pkg/logger"
)

// CHSeriesArchive persists the normalized long-format series in ClickHouse.
// The archive is write-through on reload and doubles as an alternative store
// source, so a node can rebuild without re-parsing the raw CSV.
type CHSeriesArchive struct {
	client *pkgch.Client
	table  string
	logger *applogger.Logger
}

// NewCHSeriesArchive creates an archive over the given table
// (database-qualified, e.g. "homecast.region_prices").
func NewCHSeriesArchive(client *pkgch.Client, table string) *CHSeriesArchive {
	return &CHSeriesArchive{client: client, table: table}
}

// SetLogger attaches a logger.
func (a *CHSeriesArchive) SetLogger(l *applogger.Logger) { a.logger = l }

// Schema returns the idempotent DDL for the archive table, for use with
// Client.InitSchema at startup.
func Schema(database, table string) []string {
	return []string{
		"CREATE DATABASE IF NOT EXISTS " + database,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			region_id String,
			size_rank Int32,
			region_name String,
			region_type String,
			state_name String,
			date Date,
			price Float64
		) ENGINE = ReplacingMergeTree ORDER BY (region_id, date)`, table),
	}
}

// SaveSeries replaces the archived dataset with the given snapshot.
func (a *CHSeriesArchive) SaveSeries(ctx context.Context, series map[string]*models.RegionSeries) error {
	db := a.client.DB()

	if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+a.table); err != nil {
		return fmt.Errorf("truncate archive: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (region_id, size_rank, region_name, region_type, state_name, date, price) VALUES (?, ?, ?, ?, ?, ?, ?)", a.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}

	rows := 0
	for _, rs := range series {
		for _, p := range rs.Points {
			if _, err := stmt.ExecContext(ctx,
				rs.Meta.RegionID, rs.Meta.SizeRank, rs.Meta.RegionName,
				rs.Meta.RegionType, rs.Meta.StateName, p.Date, p.Price,
			); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("append row: %w", err)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	if a.logger != nil {
		a.logger.Info("series archive saved",
			applogger.Int("regions", len(series)),
			applogger.Int("rows", rows),
		)
	}
	return nil
}

// LoadSeries reads the archived dataset back into per-region series.
func (a *CHSeriesArchive) LoadSeries(ctx context.Context) (map[string]*models.RegionSeries, error) {
	query := fmt.Sprintf(
		"SELECT region_id, size_rank, region_name, region_type, state_name, date, price FROM %s ORDER BY region_id, date", a.table)

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.RegionSeries)
	for rows.Next() {
		var (
			meta  models.RegionMeta
			date  time.Time
			price float64
		)
		if err := rows.Scan(&meta.RegionID, &meta.SizeRank, &meta.RegionName,
			&meta.RegionType, &meta.StateName, &date, &price); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		rs, ok := out[meta.RegionID]
		if !ok {
			rs = &models.RegionSeries{Meta: meta}
			out[meta.RegionID] = rs
		}
		rs.Points = append(rs.Points, models.PricePoint{Date: date, Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive: %w", err)
	}

	return out, nil
}

var _ domrepo.SeriesArchive = (*CHSeriesArchive)(nil)
