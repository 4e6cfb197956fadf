package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/metrics"
)

// QuotaLimits are the configured caps.
type QuotaLimits struct {
	SystemDailyBudget  int
	TenantMonthlyQuota int
	ManualScanDailyCap int
}

// UsageSummary is the tenant-facing view of the three counters.
type UsageSummary struct {
	Day                string `json:"day"`
	Month              string `json:"month"`
	ManualScansToday   int    `json:"manual_scans_today"`
	ManualScanDailyCap int    `json:"manual_scan_daily_cap"`
	TenantCallsMonth   int    `json:"tenant_calls_month"`
	TenantMonthlyQuota int    `json:"tenant_monthly_quota"`
	SystemCallsToday   int    `json:"system_calls_today"`
	SystemDailyBudget  int    `json:"system_daily_budget"`
	SafeMode           bool   `json:"safe_mode"`
}

// QuotaService implements the three independent checks that guard vendor
// calls and records vendor usage.
type QuotaService struct {
	limits    QuotaLimits
	requests  RequestStore
	usage     UsageStore
	overrides QuotaOverrideStore
	safe      SafeModeChecker
	clock     Clock
	log       logrus.FieldLogger
}

// NewQuotaService wires the service.  overrides and safe may be nil.
func NewQuotaService(limits QuotaLimits, requests RequestStore, usage UsageStore, overrides QuotaOverrideStore, safe SafeModeChecker, clock Clock, log logrus.FieldLogger) *QuotaService {
	return &QuotaService{
		limits:    limits,
		requests:  requests,
		usage:     usage,
		overrides: overrides,
		safe:      safe,
		clock:     clock,
		log:       log.WithField("component", "quota"),
	}
}

// CheckManualScanLimit counts every request the tenant made today,
// whatever its outcome.
func (q *QuotaService) CheckManualScanLimit(ctx context.Context, tenantID uint64) error {
	n, err := q.requests.CountSince(ctx, tenantID, q.clock.StartOfDay())
	if err != nil {
		return fmt.Errorf("count manual scans: %w", err)
	}
	if n >= q.limits.ManualScanDailyCap {
		metrics.QuotaRejections.WithLabelValues("manual_scan").Inc()
		return fmt.Errorf("%w: %d of %d scans used today", ErrManualScanLimit, n, q.limits.ManualScanDailyCap)
	}
	return nil
}

// TenantQuota returns the tenant's monthly quota, honoring overrides.
func (q *QuotaService) TenantQuota(ctx context.Context, tenantID uint64) (int, error) {
	if q.overrides == nil {
		return q.limits.TenantMonthlyQuota, nil
	}
	quota, ok, err := q.overrides.MonthlyQuota(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("load tenant quota: %w", err)
	}
	if !ok {
		return q.limits.TenantMonthlyQuota, nil
	}
	return quota, nil
}

// CheckTenantQuota counts only vendor calls billed to the tenant this month.
func (q *QuotaService) CheckTenantQuota(ctx context.Context, tenantID uint64) error {
	quota, err := q.TenantQuota(ctx, tenantID)
	if err != nil {
		return err
	}
	used, err := q.usage.TenantMonthlyCalls(ctx, tenantID, q.clock.Month())
	if err != nil {
		return fmt.Errorf("load tenant usage: %w", err)
	}
	if used >= quota {
		metrics.QuotaRejections.WithLabelValues("tenant_quota").Inc()
		return fmt.Errorf("%w: %d of %d calls used in %s", ErrTenantQuotaExceeded, used, quota, q.clock.Month())
	}
	return nil
}

// CheckSystemBudget counts all vendor calls made today.  Safe mode blocks
// every call regardless of the remaining budget.
func (q *QuotaService) CheckSystemBudget(ctx context.Context) error {
	if q.SafeMode(ctx) {
		metrics.QuotaRejections.WithLabelValues("safe_mode").Inc()
		return ErrSafeMode
	}
	used, err := q.usage.DailyCalls(ctx, q.clock.Today())
	if err != nil {
		return fmt.Errorf("load system usage: %w", err)
	}
	if used >= q.limits.SystemDailyBudget {
		metrics.QuotaRejections.WithLabelValues("system_budget").Inc()
		return fmt.Errorf("%w: %d of %d calls used today", ErrSystemBudgetExhausted, used, q.limits.SystemDailyBudget)
	}
	return nil
}

func (q *QuotaService) SafeMode(ctx context.Context) bool {
	return q.safe != nil && q.safe.Enabled(ctx)
}

// RecordSystemCall counts one vendor call against today's system budget.
func (q *QuotaService) RecordSystemCall(ctx context.Context) error {
	return q.usage.IncrementDaily(ctx, q.clock.Today())
}

// RecordTenantCall bills one vendor call to the tenant for this month.
func (q *QuotaService) RecordTenantCall(ctx context.Context, tenantID uint64) error {
	return q.usage.IncrementTenantMonthly(ctx, tenantID, q.clock.Month())
}

// Summary reports the tenant's counters against their limits.
func (q *QuotaService) Summary(ctx context.Context, tenantID uint64) (UsageSummary, error) {
	s := UsageSummary{
		Day:                q.clock.Today().Format("2006-01-02"),
		Month:              q.clock.Month(),
		ManualScanDailyCap: q.limits.ManualScanDailyCap,
		SystemDailyBudget:  q.limits.SystemDailyBudget,
		SafeMode:           q.SafeMode(ctx),
	}
	var err error
	if s.ManualScansToday, err = q.requests.CountSince(ctx, tenantID, q.clock.StartOfDay()); err != nil {
		return s, fmt.Errorf("count manual scans: %w", err)
	}
	if s.TenantMonthlyQuota, err = q.TenantQuota(ctx, tenantID); err != nil {
		return s, err
	}
	if s.TenantCallsMonth, err = q.usage.TenantMonthlyCalls(ctx, tenantID, s.Month); err != nil {
		return s, fmt.Errorf("load tenant usage: %w", err)
	}
	if s.SystemCallsToday, err = q.usage.DailyCalls(ctx, q.clock.Today()); err != nil {
		return s, fmt.Errorf("load system usage: %w", err)
	}
	return s, nil
}
