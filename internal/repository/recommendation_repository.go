package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/rateshop/internal/model"
)

// RecommendationRepo stores pricing recommendations.  A snapshot yields at
// most one recommendation.
type RecommendationRepo struct {
	db *sql.DB
}

func NewRecommendationRepo(db *sql.DB) *RecommendationRepo { return &RecommendationRepo{db: db} }

// Create inserts rec unless its snapshot already has a recommendation.  A
// new row expires the older PENDING recommendations of the same tenant and
// check-in date in the same transaction.  It reports whether a row was
// written.
func (r *RecommendationRepo) Create(ctx context.Context, rec model.Recommendation) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO recommendations
		   (tenant_id, snapshot_id, check_in_date, current_rate, suggested_rate, comp_median, gap_pct, tags, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TenantID, rec.SnapshotID, dateArg(rec.CheckInDate), rec.CurrentRate, rec.SuggestedRate,
		rec.CompMedian, rec.GapPct, strings.Join(rec.Tags, ","), string(model.RecommendationPending), rec.CreatedAt.UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE recommendations SET status = ?
		  WHERE tenant_id = ? AND check_in_date = ? AND status = ? AND id < ?`,
		string(model.RecommendationExpired), rec.TenantID, dateArg(rec.CheckInDate),
		string(model.RecommendationPending), id,
	); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// ListByTenant returns the tenant's recommendations, newest check-in last.
// An empty status lists every status.
func (r *RecommendationRepo) ListByTenant(ctx context.Context, tenantID uint64, status model.RecommendationStatus) ([]model.Recommendation, error) {
	q := `SELECT id, tenant_id, snapshot_id, check_in_date, current_rate, suggested_rate, comp_median, gap_pct,
	             tags, status, created_at, decided_at
	        FROM recommendations WHERE tenant_id = ?`
	args := []any{tenantID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY check_in_date, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Recommendation
	for rows.Next() {
		var (
			rec     model.Recommendation
			tags    string
			st      string
			decided sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.SnapshotID, &rec.CheckInDate, &rec.CurrentRate,
			&rec.SuggestedRate, &rec.CompMedian, &rec.GapPct, &tags, &st, &rec.CreatedAt, &decided); err != nil {
			return nil, err
		}
		if tags != "" {
			rec.Tags = strings.Split(tags, ",")
		}
		rec.Status = model.RecommendationStatus(st)
		rec.DecidedAt = timePtr(decided)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Decide moves a PENDING recommendation of the tenant to status.  It returns
// ErrNotFound for an unknown id and ErrConflict when the recommendation was
// already decided or expired.
func (r *RecommendationRepo) Decide(ctx context.Context, tenantID, id uint64, status model.RecommendationStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recommendations SET status = ?, decided_at = ?
		  WHERE id = ? AND tenant_id = ? AND status = ?`,
		string(status), now.UTC(), id, tenantID, string(model.RecommendationPending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM recommendations WHERE id = ? AND tenant_id = ?`, id, tenantID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// ExpirePast marks PENDING recommendations for check-in dates before today
// as EXPIRED.
func (r *RecommendationRepo) ExpirePast(ctx context.Context, today time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recommendations SET status = ? WHERE status = ? AND check_in_date < ?`,
		string(model.RecommendationExpired), string(model.RecommendationPending), dateArg(today))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
