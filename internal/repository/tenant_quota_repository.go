package repository

import (
	"context"
	"database/sql"
	"errors"
)

// TenantQuotaRepo reads per-tenant monthly quota overrides.
type TenantQuotaRepo struct {
	db *sql.DB
}

func NewTenantQuotaRepo(db *sql.DB) *TenantQuotaRepo { return &TenantQuotaRepo{db: db} }

// MonthlyQuota returns the override for the tenant.  ok is false when the
// tenant uses the configured default.
func (r *TenantQuotaRepo) MonthlyQuota(ctx context.Context, tenantID uint64) (quota int, ok bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT monthly_quota FROM tenant_quotas WHERE tenant_id = ?`, tenantID).Scan(&quota)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return quota, true, nil
}
