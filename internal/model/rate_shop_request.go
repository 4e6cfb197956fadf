package model

import "time"

// RequestStatus is the outcome of a caller-visible scan.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestCompleted RequestStatus = "COMPLETED"
	RequestCoalesced RequestStatus = "COALESCED"
	RequestFailed    RequestStatus = "FAILED"
)

// RateShopRequest records one manual scan.  A row is written for every
// accepted scan, including ones served from cache, because the daily
// manual-scan limit counts requests rather than vendor calls.
type RateShopRequest struct {
	ID             string        // rate_shop_requests.id (uuid)
	TenantID       uint64        // rate_shop_requests.tenant_id
	CacheKey       string        // rate_shop_requests.cache_key
	PropertyToken  string        // rate_shop_requests.property_token
	OffsetDays     int           // rate_shop_requests.offset_days
	Status         RequestStatus // rate_shop_requests.status
	CoalescedWith  *string       // request holding the lock when coalesced
	CreditConsumed bool          // billed against the tenant monthly quota
	Message        string        // rate_shop_requests.message
	CreatedAt      time.Time     // rate_shop_requests.created_at
	UpdatedAt      time.Time     // rate_shop_requests.updated_at
}
