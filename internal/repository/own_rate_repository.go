package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/rateshop/internal/model"
)

// OwnRateRepo stores the tenant's own published rate per check-in date.
type OwnRateRepo struct {
	db *sql.DB
}

func NewOwnRateRepo(db *sql.DB) *OwnRateRepo { return &OwnRateRepo{db: db} }

// Get returns the own rate for the date or nil when none was entered.
func (r *OwnRateRepo) Get(ctx context.Context, tenantID uint64, checkIn time.Time) (*int64, error) {
	var rate int64
	err := r.db.QueryRowContext(ctx,
		`SELECT rate FROM own_rates WHERE tenant_id = ? AND check_in_date = ?`,
		tenantID, dateArg(checkIn)).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// Upsert sets the own rate for the date.
func (r *OwnRateRepo) Upsert(ctx context.Context, rate model.OwnRate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO own_rates (tenant_id, check_in_date, rate, updated_at) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE rate = VALUES(rate), updated_at = VALUES(updated_at)`,
		rate.TenantID, dateArg(rate.CheckInDate), rate.Rate, rate.UpdatedAt.UTC())
	return err
}
