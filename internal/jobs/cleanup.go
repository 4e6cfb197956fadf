package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/config"
	"github.com/iliyamo/rateshop/internal/service"
)

type PayloadPurger interface {
	PurgeRawPayloads(ctx context.Context, cutoff time.Time) (int64, error)
}

// Purger deletes rows older than cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type RecommendationExpirer interface {
	ExpirePast(ctx context.Context, today time.Time) (int64, error)
}

// CleanupJob enforces retention.  Cache entry rows are never deleted; only
// their raw payloads are cleared.  Latest snapshots are kept regardless of
// age.
type CleanupJob struct {
	payloads  PayloadPurger
	rates     Purger
	requests  Purger
	snapshots Purger
	recs      RecommendationExpirer
	retention config.RetentionConfig
	clock     service.Clock
	log       logrus.FieldLogger
}

func NewCleanupJob(payloads PayloadPurger, rates, requests, snapshots Purger, recs RecommendationExpirer, retention config.RetentionConfig, clock service.Clock, log logrus.FieldLogger) *CleanupJob {
	return &CleanupJob{
		payloads:  payloads,
		rates:     rates,
		requests:  requests,
		snapshots: snapshots,
		recs:      recs,
		retention: retention,
		clock:     clock,
		log:       log.WithField("component", "cleanup"),
	}
}

func (j *CleanupJob) Name() string { return "cleanup" }

func (j *CleanupJob) Run(ctx context.Context) error {
	now := j.clock.Now()
	days := func(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

	steps := []struct {
		name string
		run  func() (int64, error)
	}{
		{"raw_payloads", func() (int64, error) {
			return j.payloads.PurgeRawPayloads(ctx, now.Add(-days(j.retention.RawPayloadDays)))
		}},
		{"competitor_rates", func() (int64, error) {
			return j.rates.PurgeBefore(ctx, now.Add(-days(j.retention.RateDays)))
		}},
		{"rate_shop_requests", func() (int64, error) {
			return j.requests.PurgeBefore(ctx, now.Add(-days(j.retention.RequestDays)))
		}},
		{"market_snapshots", func() (int64, error) {
			return j.snapshots.PurgeBefore(ctx, j.clock.Today().AddDate(0, 0, -j.retention.SnapshotDays))
		}},
		{"expired_recommendations", func() (int64, error) {
			return j.recs.ExpirePast(ctx, j.clock.Today())
		}},
	}

	var errs []error
	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			j.log.WithError(err).WithField("step", step.name).Error("cleanup step failed")
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		j.log.WithFields(logrus.Fields{"step": step.name, "rows": n}).Info("cleanup step done")
	}
	return errors.Join(errs...)
}
