package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rateshop/internal/logger"
	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/repository"
)

func snapshotFixture(own, median int64, available, soldOut int, demand model.Demand) model.MarketSnapshot {
	return model.MarketSnapshot{
		ID:             5,
		TenantID:       1,
		CheckInDate:    time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC),
		OwnRate:        &own,
		CompMedian:     &median,
		AvailableCount: available,
		SoldOutCount:   soldOut,
		Demand:         demand,
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name      string
		snap      model.MarketSnapshot
		wantOK    bool
		suggested int64
		gapPct    float64
		tags      []string
	}{
		{
			name:      "overpriced in strong demand",
			snap:      snapshotFixture(130000, 100000, 3, 2, model.DemandStrong),
			wantOK:    true,
			suggested: 105000,
			gapPct:    30,
			tags:      []string{model.TagOverpriced, model.TagHighDemandBuffer, model.TagCompetitorsSoldOut},
		},
		{
			name:      "overpriced in normal demand",
			snap:      snapshotFixture(120000, 100000, 4, 0, model.DemandNormal),
			wantOK:    true,
			suggested: 100000,
			gapPct:    20,
			tags:      []string{model.TagOverpriced},
		},
		{
			name:      "underpriced in weak demand",
			snap:      snapshotFixture(80000, 100000, 5, 0, model.DemandWeak),
			wantOK:    true,
			suggested: 95000,
			gapPct:    -20,
			tags:      []string{model.TagUnderpriced, model.TagLowDemandCaution},
		},
		{
			name:      "gap rounding",
			snap:      snapshotFixture(70000, 90000, 2, 0, model.DemandNormal),
			wantOK:    true,
			suggested: 90000,
			gapPct:    -22.22,
			tags:      []string{model.TagUnderpriced},
		},
		{name: "competitive", snap: snapshotFixture(110000, 100000, 3, 0, model.DemandNormal)},
		{name: "exactly at threshold", snap: snapshotFixture(115000, 100000, 3, 0, model.DemandNormal)},
		{name: "too few competitors", snap: snapshotFixture(200000, 100000, 1, 0, model.DemandNormal)},
		{name: "no own rate", snap: model.MarketSnapshot{CompMedian: ptr(int64(100000)), AvailableCount: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := Recommend(tt.snap)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.suggested, rec.SuggestedRate)
			assert.Equal(t, tt.gapPct, rec.GapPct)
			assert.Equal(t, tt.tags, rec.Tags)
			assert.Equal(t, tt.snap.ID, rec.SnapshotID)
			assert.Equal(t, *tt.snap.OwnRate, rec.CurrentRate)
			assert.Equal(t, model.RecommendationPending, rec.Status)
		})
	}
}

func TestRecommendationLifecycle(t *testing.T) {
	clock := NewClock(func() time.Time { return testNow }, time.UTC)
	ctx := context.Background()
	snaps := &fakeSnapshots{}
	recs := &fakeRecommendations{}
	svc := NewRecommendationService(snaps, recs, clock, logger.Discard())

	over := snapshotFixture(130000, 100000, 3, 0, model.DemandNormal)
	fair := snapshotFixture(100000, 100000, 3, 0, model.DemandNormal)
	fair.CheckInDate = fair.CheckInDate.AddDate(0, 0, 1)
	past := snapshotFixture(130000, 100000, 3, 0, model.DemandNormal)
	past.CheckInDate = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	for _, s := range []model.MarketSnapshot{over, fair, past} {
		_, err := snaps.SaveLatest(ctx, s)
		require.NoError(t, err)
	}

	n, err := svc.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = svc.Generate(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, err := svc.List(ctx, 1, model.RecommendationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	id := pending[0].ID

	require.NoError(t, svc.Accept(ctx, 1, id))
	assert.ErrorIs(t, svc.Reject(ctx, 1, id), repository.ErrConflict)
	assert.ErrorIs(t, svc.Accept(ctx, 2, id), repository.ErrNotFound)

	accepted, err := svc.List(ctx, 1, model.RecommendationAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, testNow, *accepted[0].DecidedAt)
}

func TestGenerateSupersedesPendingForSameStay(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnapshots{}
	recs := &fakeRecommendations{}

	day := testNow
	clock := NewClock(func() time.Time { return day }, time.UTC)
	svc := NewRecommendationService(snaps, recs, clock, logger.Discard())

	other := snapshotFixture(130000, 100000, 3, 0, model.DemandNormal)
	other.CheckInDate = other.CheckInDate.AddDate(0, 0, 1)
	other.SnapshotDate = clock.Today()
	_, err := snaps.SaveLatest(ctx, other)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		s := snapshotFixture(130000+int64(i)*10000, 100000, 3, 0, model.DemandNormal)
		s.SnapshotDate = clock.Today()
		_, err := snaps.SaveLatest(ctx, s)
		require.NoError(t, err)
		_, err = svc.Generate(ctx)
		require.NoError(t, err)
		day = day.AddDate(0, 0, 1)
	}

	pending, err := svc.List(ctx, 1, model.RecommendationPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	byDate := map[string]model.Recommendation{}
	for _, r := range pending {
		byDate[r.CheckInDate.Format("2006-01-02")] = r
	}
	assert.Equal(t, int64(140000), byDate["2026-10-22"].CurrentRate)
	assert.Equal(t, int64(130000), byDate["2026-10-23"].CurrentRate)

	expired, err := svc.List(ctx, 1, model.RecommendationExpired)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(130000), expired[0].CurrentRate)
	assert.True(t, expired[0].CheckInDate.Equal(time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC)))
}
