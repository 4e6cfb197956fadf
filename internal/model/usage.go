package model

import "time"

// UsageDaily counts every vendor call of a day, whoever triggered it.
type UsageDaily struct {
	UsageDate   time.Time // usage_daily.usage_date
	VendorCalls int       // usage_daily.vendor_calls
}

// UsageTenantMonthly counts vendor calls billed to a tenant in a month
// (YYYY-MM).
type UsageTenantMonthly struct {
	TenantID    uint64 // usage_tenant_monthly.tenant_id
	UsageMonth  string // usage_tenant_monthly.usage_month
	VendorCalls int    // usage_tenant_monthly.vendor_calls
}
