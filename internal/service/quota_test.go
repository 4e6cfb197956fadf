package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rateshop/internal/model"
)

func TestQuotaChecksAreIndependent(t *testing.T) {
	h := newHarness(QuotaLimits{SystemDailyBudget: 10, TenantMonthlyQuota: 5, ManualScanDailyCap: 3}, false)
	ctx := context.Background()

	h.usage.daily["2026-10-15"] = 9
	h.usage.monthly["1/2026-10"] = 4
	require.NoError(t, h.quota.CheckSystemBudget(ctx))
	require.NoError(t, h.quota.CheckTenantQuota(ctx, 1))
	require.NoError(t, h.quota.CheckManualScanLimit(ctx, 1))

	require.NoError(t, h.quota.RecordSystemCall(ctx))
	require.NoError(t, h.quota.RecordTenantCall(ctx, 1))
	assert.ErrorIs(t, h.quota.CheckSystemBudget(ctx), ErrSystemBudgetExhausted)
	assert.ErrorIs(t, h.quota.CheckTenantQuota(ctx, 1), ErrTenantQuotaExceeded)
	assert.NoError(t, h.quota.CheckTenantQuota(ctx, 2))
	assert.NoError(t, h.quota.CheckManualScanLimit(ctx, 1))
}

func TestQuotaTenantOverride(t *testing.T) {
	h := newHarness(defaultLimits(), false)
	h.overrides[7] = 1000

	q, err := h.quota.TenantQuota(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1000, q)

	q, err = h.quota.TenantQuota(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, 200, q)
}

func TestQuotaSafeModeBlocksBeforeBudget(t *testing.T) {
	h := newHarness(defaultLimits(), true)
	assert.ErrorIs(t, h.quota.CheckSystemBudget(context.Background()), ErrSafeMode)
}

func TestQuotaMonthRollsOver(t *testing.T) {
	h := newHarness(defaultLimits(), false)
	h.usage.monthly["1/2026-09"] = 200
	assert.NoError(t, h.quota.CheckTenantQuota(context.Background(), 1))
}

func TestQuotaSummary(t *testing.T) {
	h := newHarness(defaultLimits(), false)
	ctx := context.Background()
	h.usage.daily["2026-10-15"] = 42
	h.usage.monthly["1/2026-10"] = 7
	require.NoError(t, h.requests.Create(ctx, model.RateShopRequest{ID: "a", TenantID: 1, CreatedAt: testNow}))
	require.NoError(t, h.requests.Create(ctx, model.RateShopRequest{ID: "b", TenantID: 1, CreatedAt: testNow.Add(-48 * time.Hour)}))

	s, err := h.quota.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, UsageSummary{
		Day:                "2026-10-15",
		Month:              "2026-10",
		ManualScansToday:   1,
		ManualScanDailyCap: 20,
		TenantCallsMonth:   7,
		TenantMonthlyQuota: 200,
		SystemCallsToday:   42,
		SystemDailyBudget:  500,
	}, s)
}
