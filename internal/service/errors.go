package service

import "errors"

// Quota and budget rejections.  They are not retryable until the window
// they count rolls over.
var (
	ErrManualScanLimit       = errors.New("manual scan daily limit reached")
	ErrTenantQuotaExceeded   = errors.New("tenant monthly quota exceeded")
	ErrSystemBudgetExhausted = errors.New("system daily budget exhausted")
	ErrSafeMode              = errors.New("safe mode: vendor calls are disabled")
)

var (
	// ErrRefreshInProgress is returned by ExecuteRefresh when another caller
	// holds the refresh lock.  Callers coalesce onto that refresh.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	ErrUnsupportedOffset   = errors.New("unsupported horizon offset")
	ErrCompetitorNotFound  = errors.New("competitor not found")
	ErrEmptyQuery          = errors.New("search query is empty")
	ErrSafeModeUnavailable = errors.New("runtime safe mode switch requires redis")
)
