package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/rateshop/internal/model"
)

const competitorColumns = `id, tenant_id, name, property_token, is_active, created_at, updated_at`

// CompetitorRepo reads tenant-scoped competitor references.  Competitors
// are soft-deleted through is_active and never removed.
type CompetitorRepo struct {
	db *sql.DB
}

func NewCompetitorRepo(db *sql.DB) *CompetitorRepo { return &CompetitorRepo{db: db} }

// GetActiveByToken returns the tenant's active competitor tracking token, or
// ErrNotFound.
func (r *CompetitorRepo) GetActiveByToken(ctx context.Context, tenantID uint64, token string) (*model.Competitor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+competitorColumns+` FROM competitors WHERE tenant_id = ? AND property_token = ? AND is_active = 1`,
		tenantID, token)
	var c model.Competitor
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.PropertyToken, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActiveByToken returns every active competitor, across tenants, that
// tracks token.  This is the fan-out set of one vendor call.
func (r *CompetitorRepo) ListActiveByToken(ctx context.Context, token string) ([]model.Competitor, error) {
	return r.list(ctx,
		`SELECT `+competitorColumns+` FROM competitors WHERE property_token = ? AND is_active = 1 ORDER BY id`, token)
}

// ListActiveByTenant returns the tenant's active competitors.
func (r *CompetitorRepo) ListActiveByTenant(ctx context.Context, tenantID uint64) ([]model.Competitor, error) {
	return r.list(ctx,
		`SELECT `+competitorColumns+` FROM competitors WHERE tenant_id = ? AND is_active = 1 ORDER BY name, id`, tenantID)
}

// ListActiveTokens returns the distinct property tokens with at least one
// active competitor.
func (r *CompetitorRepo) ListActiveTokens(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT property_token FROM competitors WHERE is_active = 1 ORDER BY property_token`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListTenantsWithActive returns the tenants that track at least one active
// competitor.
func (r *CompetitorRepo) ListTenantsWithActive(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT tenant_id FROM competitors WHERE is_active = 1 ORDER BY tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *CompetitorRepo) list(ctx context.Context, q string, args ...any) ([]model.Competitor, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Competitor
	for rows.Next() {
		var c model.Competitor
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.PropertyToken, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
