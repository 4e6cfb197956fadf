package jobs

import (
	"context"

	"github.com/sirupsen/logrus"
)

type RecommendationGenerator interface {
	Generate(ctx context.Context) (int, error)
}

// RecommendJob evaluates the latest snapshots.  It runs after the snapshot
// job.
type RecommendJob struct {
	gen RecommendationGenerator
	log logrus.FieldLogger
}

func NewRecommendJob(gen RecommendationGenerator, log logrus.FieldLogger) *RecommendJob {
	return &RecommendJob{gen: gen, log: log.WithField("component", "recommend-job")}
}

func (j *RecommendJob) Name() string { return "recommend" }

func (j *RecommendJob) Run(ctx context.Context) error {
	n, err := j.gen.Generate(ctx)
	if err != nil {
		return err
	}
	j.log.WithField("created", n).Info("recommendations generated")
	return nil
}
