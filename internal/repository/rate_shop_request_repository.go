package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/rateshop/internal/model"
)

// RateShopRequestRepo stores one row per manual scan ask.  Rows are created
// PENDING and finished exactly once.
type RateShopRequestRepo struct {
	db *sql.DB
}

func NewRateShopRequestRepo(db *sql.DB) *RateShopRequestRepo { return &RateShopRequestRepo{db: db} }

func (r *RateShopRequestRepo) Create(ctx context.Context, req model.RateShopRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rate_shop_requests
		   (id, tenant_id, cache_key, property_token, offset_days, status, coalesced_with, credit_consumed, message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.TenantID, req.CacheKey, req.PropertyToken, req.OffsetDays, string(req.Status),
		nullStringArg(req.CoalescedWith), req.CreditConsumed, req.Message, req.CreatedAt.UTC(), req.CreatedAt.UTC(),
	)
	return err
}

// Finish records the outcome of a request.
func (r *RateShopRequestRepo) Finish(ctx context.Context, req model.RateShopRequest) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rate_shop_requests
		    SET status = ?, coalesced_with = ?, credit_consumed = ?, message = ?, updated_at = ?
		  WHERE id = ?`,
		string(req.Status), nullStringArg(req.CoalescedWith), req.CreditConsumed, req.Message, req.UpdatedAt.UTC(), req.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RateShopRequestRepo) Get(ctx context.Context, id string) (*model.RateShopRequest, error) {
	var (
		req       model.RateShopRequest
		status    string
		coalesced sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, cache_key, property_token, offset_days, status, coalesced_with, credit_consumed, message, created_at, updated_at
		   FROM rate_shop_requests WHERE id = ?`, id,
	).Scan(&req.ID, &req.TenantID, &req.CacheKey, &req.PropertyToken, &req.OffsetDays, &status, &coalesced,
		&req.CreditConsumed, &req.Message, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	req.Status = model.RequestStatus(status)
	req.CoalescedWith = stringPtr(coalesced)
	return &req, nil
}

// CountSince counts every request of the tenant created at or after since,
// whatever its outcome.
func (r *RateShopRequestRepo) CountSince(ctx context.Context, tenantID uint64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rate_shop_requests WHERE tenant_id = ? AND created_at >= ?`,
		tenantID, since.UTC()).Scan(&n)
	return n, err
}

// PurgeBefore deletes requests created before cutoff.
func (r *RateShopRequestRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rate_shop_requests WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
