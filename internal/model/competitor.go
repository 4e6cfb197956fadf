package model

import "time"

// Competitor is a tenant-scoped reference to an externally tracked hotel.
// Several tenants may point at the same PropertyToken; rates fetched for
// that token are fanned out to all of them.  Competitors are never deleted,
// only deactivated, so historical rates keep their linkage.
type Competitor struct {
	ID            uint64    // competitors.id
	TenantID      uint64    // competitors.tenant_id
	Name          string    // competitors.name
	PropertyToken string    // competitors.property_token
	IsActive      bool      // competitors.is_active
	CreatedAt     time.Time // competitors.created_at
	UpdatedAt     time.Time // competitors.updated_at
}
