package model

import "time"

// OwnRate is the tenant's own published rate for a check-in date.  It is
// maintained by the pricing UI; the engine only reads it.
type OwnRate struct {
	TenantID    uint64    // own_rates.tenant_id
	CheckInDate time.Time // own_rates.check_in_date
	Rate        int64     // own_rates.rate
	UpdatedAt   time.Time // own_rates.updated_at
}
