package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rateshop/internal/config"
	"github.com/iliyamo/rateshop/internal/logger"
)

type staticTenants []uint64

func (s staticTenants) ListTenantsWithActive(context.Context) ([]uint64, error) { return s, nil }

type fakeBuilder struct {
	built []uint64
	fail  map[uint64]bool
}

func (b *fakeBuilder) BuildTenant(_ context.Context, tenantID uint64, offsets []int) (int, error) {
	if b.fail[tenantID] {
		return 0, errors.New("boom")
	}
	b.built = append(b.built, tenantID)
	return len(offsets), nil
}

func TestSnapshotJobContinuesPastFailingTenant(t *testing.T) {
	b := &fakeBuilder{fail: map[uint64]bool{2: true}}
	err := NewSnapshotJob(staticTenants{1, 2, 3}, b, logger.Discard()).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant 2")
	assert.Equal(t, []uint64{1, 3}, b.built)
}

type generator struct {
	n   int
	err error
}

func (g generator) Generate(context.Context) (int, error) { return g.n, g.err }

func TestRecommendJob(t *testing.T) {
	require.NoError(t, NewRecommendJob(generator{n: 3}, logger.Discard()).Run(context.Background()))
	require.Error(t, NewRecommendJob(generator{err: errors.New("db")}, logger.Discard()).Run(context.Background()))
}

type cutoffRecorder struct {
	cutoff time.Time
	err    error
}

func (c *cutoffRecorder) PurgeRawPayloads(_ context.Context, cutoff time.Time) (int64, error) {
	c.cutoff = cutoff
	return 1, c.err
}

func (c *cutoffRecorder) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	c.cutoff = cutoff
	return 1, c.err
}

func (c *cutoffRecorder) ExpirePast(_ context.Context, today time.Time) (int64, error) {
	c.cutoff = today
	return 1, c.err
}

func TestCleanupJobCutoffs(t *testing.T) {
	payloads, rates, requests, snapshots, recs := &cutoffRecorder{}, &cutoffRecorder{}, &cutoffRecorder{}, &cutoffRecorder{}, &cutoffRecorder{}
	retention := config.RetentionConfig{RawPayloadDays: 7, RateDays: 90, RequestDays: 30, SnapshotDays: 180}
	job := NewCleanupJob(payloads, rates, requests, snapshots, recs, retention, testClock(), logger.Discard())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.AddDate(0, 0, -7), payloads.cutoff)
	assert.Equal(t, now.AddDate(0, 0, -90), rates.cutoff)
	assert.Equal(t, now.AddDate(0, 0, -30), requests.cutoff)
	assert.Equal(t, time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC), snapshots.cutoff)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), recs.cutoff)
}

func TestCleanupJobRunsEveryStep(t *testing.T) {
	failing := &cutoffRecorder{err: errors.New("locked")}
	recs := &cutoffRecorder{}
	job := NewCleanupJob(failing, failing, &cutoffRecorder{}, &cutoffRecorder{}, recs, config.RetentionConfig{RawPayloadDays: 1, RateDays: 1, RequestDays: 1, SnapshotDays: 1}, testClock(), logger.Discard())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "raw_payloads")
	assert.Contains(t, err.Error(), "competitor_rates")
	assert.False(t, recs.cutoff.IsZero())
}

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestRunOnce(t *testing.T) {
	j := &countingJob{err: errors.New("x")}
	require.Error(t, RunOnce(context.Background(), j, logger.Discard()))
	assert.Equal(t, 1, j.runs)
}

func TestRunEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j := &countingJob{}
	RunEvery(ctx, j, time.Hour, logger.Discard())
	assert.Equal(t, 1, j.runs)
}
