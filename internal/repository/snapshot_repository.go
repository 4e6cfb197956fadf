package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/rateshop/internal/model"
)

const snapshotColumns = `id, tenant_id, check_in_date, los, adults, snapshot_date, own_rate, comp_min, comp_max,
	comp_avg, comp_median, available_count, sold_out_count, no_rate_count, source_count, before_tax_ratio,
	demand, confidence, is_latest, created_at`

// SnapshotRepo writes market snapshots.  At most one row per (tenant,
// check-in date, LOS, adults) carries is_latest = 1.
type SnapshotRepo struct {
	db *sql.DB
}

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

// SaveLatest stores s as the latest snapshot of its stay.  Inside one
// transaction the current latest row is flipped off and s is upserted with
// is_latest = 1, keyed by snapshot date.  It returns the row id.
func (r *SnapshotRepo) SaveLatest(ctx context.Context, s model.MarketSnapshot) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	id, err := r.SaveLatestTx(ctx, tx, s)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return id, nil
}

// SaveLatestTx is SaveLatest within a caller-owned transaction.
func (r *SnapshotRepo) SaveLatestTx(ctx context.Context, tx *sql.Tx, s model.MarketSnapshot) (uint64, error) {
	if _, err := tx.ExecContext(ctx,
		`UPDATE market_snapshots SET is_latest = 0
		  WHERE tenant_id = ? AND check_in_date = ? AND los = ? AND adults = ? AND is_latest = 1`,
		s.TenantID, dateArg(s.CheckInDate), s.LOS, s.Adults,
	); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO market_snapshots
		   (tenant_id, check_in_date, los, adults, snapshot_date, own_rate, comp_min, comp_max, comp_avg, comp_median,
		    available_count, sold_out_count, no_rate_count, source_count, before_tax_ratio, demand, confidence, is_latest)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		 ON DUPLICATE KEY UPDATE
		   id = LAST_INSERT_ID(id), own_rate = VALUES(own_rate), comp_min = VALUES(comp_min),
		   comp_max = VALUES(comp_max), comp_avg = VALUES(comp_avg), comp_median = VALUES(comp_median),
		   available_count = VALUES(available_count), sold_out_count = VALUES(sold_out_count),
		   no_rate_count = VALUES(no_rate_count), source_count = VALUES(source_count),
		   before_tax_ratio = VALUES(before_tax_ratio), demand = VALUES(demand),
		   confidence = VALUES(confidence), is_latest = 1`,
		s.TenantID, dateArg(s.CheckInDate), s.LOS, s.Adults, dateArg(s.SnapshotDate),
		nullInt64Arg(s.OwnRate), nullInt64Arg(s.CompMin), nullInt64Arg(s.CompMax), nullInt64Arg(s.CompAvg),
		nullInt64Arg(s.CompMedian), s.AvailableCount, s.SoldOutCount, s.NoRateCount, s.SourceCount,
		s.BeforeTaxRatio, string(s.Demand), string(s.Confidence),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListLatest returns the latest snapshots with a check-in date on or after
// from, across tenants.
func (r *SnapshotRepo) ListLatest(ctx context.Context, from time.Time) ([]model.MarketSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM market_snapshots
		  WHERE is_latest = 1 AND check_in_date >= ?
		  ORDER BY tenant_id, check_in_date`, dateArg(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketSnapshot
	for rows.Next() {
		var (
			s                                      model.MarketSnapshot
			own, compMin, compMax, compAvg, median sql.NullInt64
			demand, confidence                     string
		)
		if err := rows.Scan(&s.ID, &s.TenantID, &s.CheckInDate, &s.LOS, &s.Adults, &s.SnapshotDate,
			&own, &compMin, &compMax, &compAvg, &median, &s.AvailableCount, &s.SoldOutCount,
			&s.NoRateCount, &s.SourceCount, &s.BeforeTaxRatio, &demand, &confidence, &s.IsLatest, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.OwnRate = int64Ptr(own)
		s.CompMin = int64Ptr(compMin)
		s.CompMax = int64Ptr(compMax)
		s.CompAvg = int64Ptr(compAvg)
		s.CompMedian = int64Ptr(median)
		s.Demand = model.Demand(demand)
		s.Confidence = model.Confidence(confidence)
		out = append(out, s)
	}
	return out, rows.Err()
}

// PurgeBefore deletes superseded snapshots taken before cutoff.  Latest
// rows and rows referenced by a recommendation are always kept.
func (r *SnapshotRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM market_snapshots
		  WHERE is_latest = 0 AND snapshot_date < ?
		    AND NOT EXISTS (SELECT 1 FROM recommendations r WHERE r.snapshot_id = market_snapshots.id)`,
		dateArg(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
