package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rateshop/internal/logger"
	"github.com/iliyamo/rateshop/internal/model"
)

func newViewService(h *harness, own *fakeOwnRates) *ViewService {
	return NewViewService(h.comps, h.cache, h.rates, own, testDefaults, h.clock, logger.Discard())
}

func TestRatesViewDay(t *testing.T) {
	h := newHarness(defaultLimits(), false)
	ctx := context.Background()
	key := h.seed("tok-A", 7, -3*time.Hour, -time.Hour)
	_, params := h.key("tok-A", 7)
	_, err := h.refresh.ExecuteRefresh(ctx, key, params, nil, "")
	require.NoError(t, err)
	own := &fakeOwnRates{}
	require.NoError(t, own.Upsert(ctx, model.OwnRate{TenantID: 1, CheckInDate: h.clock.CheckIn(7), Rate: 110000}))
	calls := h.vendor.callCount()

	days, err := newViewService(h, own).RatesView(ctx, 1, []int{7})
	require.NoError(t, err)
	require.Len(t, days, 1)
	day := days[0]

	assert.Equal(t, 7, day.OffsetDays)
	assert.Equal(t, "2026-10-22", day.CheckInDate)
	require.NotNil(t, day.OwnRate)
	assert.Equal(t, int64(110000), *day.OwnRate)
	// tok-B was never fetched, so the day is as bad as NOT_FOUND.
	assert.Equal(t, model.CacheNotFound, day.Freshness)
	assert.True(t, day.MixedTaxBasis)

	require.Len(t, day.Competitors, 2)
	a, b := day.Competitors[0], day.Competitors[1]
	assert.Equal(t, model.CacheFresh, a.CacheStatus)
	assert.Equal(t, model.RateAvailable, a.Availability)
	assert.Equal(t, int64(100000), *a.BestPrice)
	assert.Len(t, a.Rates, 2)
	assert.Equal(t, model.CacheNotFound, b.CacheStatus)
	assert.Equal(t, model.RateNoRate, b.Availability)
	assert.Nil(t, b.BestPrice)

	assert.Equal(t, calls, h.vendor.callCount())
}

func TestRatesViewFreshnessIsWorstStatus(t *testing.T) {
	h := newHarness(defaultLimits(), false)
	h.seed("tok-A", 1, time.Hour, 2*time.Hour)
	h.seed("tok-B", 1, -time.Hour, time.Hour)

	days, err := newViewService(h, &fakeOwnRates{}).RatesView(context.Background(), 1, []int{1})
	require.NoError(t, err)
	assert.Equal(t, model.CacheStale, days[0].Freshness)
	assert.Nil(t, days[0].OwnRate)
	assert.False(t, days[0].MixedTaxBasis)
}

func TestRatesViewSoldOut(t *testing.T) {
	h := newHarness(defaultLimits(), false)
	ctx := context.Background()
	key := h.seed("tok-A", 3, -3*time.Hour, -time.Hour)
	_, params := h.key("tok-A", 3)
	h.vendor.payload = []byte(`{"prices": []}`)
	_, err := h.refresh.ExecuteRefresh(ctx, key, params, nil, "")
	require.NoError(t, err)

	days, err := newViewService(h, &fakeOwnRates{}).RatesView(ctx, 2, []int{3})
	require.NoError(t, err)
	require.Len(t, days[0].Competitors, 1)
	c := days[0].Competitors[0]
	assert.Equal(t, model.RateSoldOut, c.Availability)
	assert.Empty(t, c.Rates)
	assert.NotNil(t, c.ScrapedAt)
	assert.Equal(t, model.CacheFresh, days[0].Freshness)
}

func TestRatesViewOffsets(t *testing.T) {
	h := newHarness(defaultLimits(), false)
	v := newViewService(h, &fakeOwnRates{})

	days, err := v.RatesView(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Len(t, days, 7)

	_, err = v.RatesView(context.Background(), 1, []int{1, 2})
	assert.ErrorIs(t, err, ErrUnsupportedOffset)
}

func TestRatesViewWithoutCompetitors(t *testing.T) {
	h := newHarness(defaultLimits(), false)
	days, err := newViewService(h, &fakeOwnRates{}).RatesView(context.Background(), 99, []int{0})
	require.NoError(t, err)
	assert.Equal(t, model.CacheNotFound, days[0].Freshness)
	assert.Empty(t, days[0].Competitors)
}
