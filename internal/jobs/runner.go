// Package jobs holds the periodic background work of the engine: cache
// refresh scheduling, snapshot building, recommendation generation and
// data retention.
package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/metrics"
)

// Job is one unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// RunOnce runs job a single time and records the outcome.
func RunOnce(ctx context.Context, job Job, log logrus.FieldLogger) error {
	started := time.Now()
	log = log.WithField("job", job.Name())
	if err := job.Run(ctx); err != nil {
		metrics.JobRuns.WithLabelValues(job.Name(), "error").Inc()
		log.WithError(err).WithField("took", time.Since(started)).Error("job failed")
		return err
	}
	metrics.JobRuns.WithLabelValues(job.Name(), "ok").Inc()
	log.WithField("took", time.Since(started)).Info("job finished")
	return nil
}

// RunEvery runs job immediately and then on every tick until ctx is done.
// A failed run is logged and retried at the next tick.
func RunEvery(ctx context.Context, job Job, interval time.Duration, log logrus.FieldLogger) {
	log.WithFields(logrus.Fields{"job": job.Name(), "interval": interval}).Info("starting periodic job")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = RunOnce(ctx, job, log)
		select {
		case <-ctx.Done():
			log.WithField("job", job.Name()).Info("periodic job stopped")
			return
		case <-ticker.C:
		}
	}
}
