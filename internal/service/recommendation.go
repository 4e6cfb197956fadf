package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/pricing"
)

// GapThreshold is the relative distance from the competitor median beyond
// which a rate change is recommended.
const GapThreshold = 0.15

// demandMultiplier scales the target rate by market demand.
func demandMultiplier(d model.Demand) float64 {
	switch d {
	case model.DemandStrong:
		return 1.05
	case model.DemandWeak:
		return 0.95
	default:
		return 1.0
	}
}

// Recommend evaluates a snapshot.  It returns false when the snapshot is
// unusable (no own rate, fewer than two available competitors or no median)
// or when the own rate is competitive.
func Recommend(s model.MarketSnapshot) (model.Recommendation, bool) {
	if s.OwnRate == nil || s.CompMedian == nil || *s.CompMedian <= 0 || s.AvailableCount < 2 {
		return model.Recommendation{}, false
	}
	own, median := *s.OwnRate, *s.CompMedian
	gap := float64(own-median) / float64(median)

	var tags []string
	switch {
	case gap > GapThreshold:
		tags = append(tags, model.TagOverpriced)
		if s.Demand == model.DemandStrong {
			tags = append(tags, model.TagHighDemandBuffer)
		}
		if s.SoldOutCount > 0 {
			tags = append(tags, model.TagCompetitorsSoldOut)
		}
	case gap < -GapThreshold:
		tags = append(tags, model.TagUnderpriced)
		if s.Demand == model.DemandWeak {
			tags = append(tags, model.TagLowDemandCaution)
		}
	default:
		return model.Recommendation{}, false
	}

	return model.Recommendation{
		TenantID:      s.TenantID,
		SnapshotID:    s.ID,
		CheckInDate:   s.CheckInDate,
		CurrentRate:   own,
		SuggestedRate: pricing.Round(float64(median) * demandMultiplier(s.Demand)),
		CompMedian:    median,
		GapPct:        decimal.NewFromFloat(gap * 100).Round(2).InexactFloat64(),
		Tags:          tags,
		Status:        model.RecommendationPending,
	}, true
}

// RecommendationService turns latest snapshots into recommendations and
// manages their lifecycle.
type RecommendationService struct {
	snapshots SnapshotStore
	recs      RecommendationStore
	clock     Clock
	log       logrus.FieldLogger
}

func NewRecommendationService(snapshots SnapshotStore, recs RecommendationStore, clock Clock, log logrus.FieldLogger) *RecommendationService {
	return &RecommendationService{snapshots: snapshots, recs: recs, clock: clock, log: log.WithField("component", "recommendation")}
}

// Generate evaluates every latest snapshot from today on.  A snapshot that
// already produced a recommendation is not evaluated twice, and a new
// recommendation supersedes the stay's older PENDING one.  It returns the
// number of new recommendations.
func (r *RecommendationService) Generate(ctx context.Context) (int, error) {
	snaps, err := r.snapshots.ListLatest(ctx, r.clock.Today())
	if err != nil {
		return 0, fmt.Errorf("list latest snapshots: %w", err)
	}
	created := 0
	for _, s := range snaps {
		rec, ok := Recommend(s)
		if !ok {
			continue
		}
		rec.CreatedAt = r.clock.Now()
		inserted, err := r.recs.Create(ctx, rec)
		if err != nil {
			return created, fmt.Errorf("create recommendation: %w", err)
		}
		if inserted {
			created++
			r.log.WithFields(logrus.Fields{
				"tenant_id":   rec.TenantID,
				"snapshot_id": rec.SnapshotID,
				"gap_pct":     rec.GapPct,
				"tags":        rec.Tags,
			}).Info("recommendation created")
		}
	}
	return created, nil
}

func (r *RecommendationService) List(ctx context.Context, tenantID uint64, status model.RecommendationStatus) ([]model.Recommendation, error) {
	return r.recs.ListByTenant(ctx, tenantID, status)
}

// Accept and Reject are terminal.  They return repository.ErrConflict when
// the recommendation is no longer PENDING.
func (r *RecommendationService) Accept(ctx context.Context, tenantID, id uint64) error {
	return r.recs.Decide(ctx, tenantID, id, model.RecommendationAccepted, r.clock.Now())
}

func (r *RecommendationService) Reject(ctx context.Context, tenantID, id uint64) error {
	return r.recs.Decide(ctx, tenantID, id, model.RecommendationRejected, r.clock.Now())
}
