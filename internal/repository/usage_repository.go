package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// UsageRepo maintains the vendor call counters.  Increments are single
// upserts so concurrent callers never lose an update.
type UsageRepo struct {
	db *sql.DB
}

func NewUsageRepo(db *sql.DB) *UsageRepo { return &UsageRepo{db: db} }

// IncrementDaily adds one system-wide vendor call for day.
func (r *UsageRepo) IncrementDaily(ctx context.Context, day time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_daily (usage_date, vendor_calls) VALUES (?, 1)
		 ON DUPLICATE KEY UPDATE vendor_calls = vendor_calls + 1`, dateArg(day))
	return err
}

// IncrementTenantMonthly adds one billed vendor call for the tenant in
// month (YYYY-MM).
func (r *UsageRepo) IncrementTenantMonthly(ctx context.Context, tenantID uint64, month string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_tenant_monthly (tenant_id, usage_month, vendor_calls) VALUES (?, ?, 1)
		 ON DUPLICATE KEY UPDATE vendor_calls = vendor_calls + 1`, tenantID, month)
	return err
}

// DailyCalls returns the system-wide calls recorded for day.
func (r *UsageRepo) DailyCalls(ctx context.Context, day time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT vendor_calls FROM usage_daily WHERE usage_date = ?`, dateArg(day)).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// TenantMonthlyCalls returns the calls billed to the tenant in month.
func (r *UsageRepo) TenantMonthlyCalls(ctx context.Context, tenantID uint64, month string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT vendor_calls FROM usage_tenant_monthly WHERE tenant_id = ? AND usage_month = ?`,
		tenantID, month).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}
