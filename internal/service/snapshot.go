package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/pricing"
	"github.com/iliyamo/rateshop/internal/repository"
)

// SnapshotService aggregates the latest competitor rates of a tenant into
// market snapshots.
type SnapshotService struct {
	competitors CompetitorStore
	cache       CacheStore
	rates       RateStore
	ownRates    OwnRateStore
	snapshots   SnapshotStore
	defaults    SearchDefaults
	clock       Clock
	log         logrus.FieldLogger
}

func NewSnapshotService(competitors CompetitorStore, cache CacheStore, rates RateStore, ownRates OwnRateStore, snapshots SnapshotStore, defaults SearchDefaults, clock Clock, log logrus.FieldLogger) *SnapshotService {
	return &SnapshotService{
		competitors: competitors,
		cache:       cache,
		rates:       rates,
		ownRates:    ownRates,
		snapshots:   snapshots,
		defaults:    defaults,
		clock:       clock,
		log:         log.WithField("component", "snapshot"),
	}
}

// BuildTenant writes one snapshot per offset for the tenant and returns how
// many were written.  Tenants without active competitors are skipped.
func (s *SnapshotService) BuildTenant(ctx context.Context, tenantID uint64, offsets []int) (int, error) {
	comps, err := s.competitors.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("list competitors: %w", err)
	}
	if len(comps) == 0 {
		return 0, nil
	}
	written := 0
	for _, offset := range offsets {
		snap, err := s.Build(ctx, tenantID, comps, offset)
		if err != nil {
			return written, err
		}
		if _, err := s.snapshots.SaveLatest(ctx, snap); err != nil {
			return written, fmt.Errorf("save snapshot: %w", err)
		}
		written++
	}
	return written, nil
}

// Build aggregates one stay without writing it.  Only rates still inside
// their fresh or stale window are used; older data counts as NO_RATE.
func (s *SnapshotService) Build(ctx context.Context, tenantID uint64, comps []model.Competitor, offset int) (model.MarketSnapshot, error) {
	checkIn := s.clock.CheckIn(offset)
	now := s.clock.Now()

	obs := make([]pricing.Observation, 0, len(comps))
	for _, c := range comps {
		key := s.defaults.Params(c.PropertyToken, checkIn).Key()
		usable, err := s.usable(ctx, key, now)
		if err != nil {
			return model.MarketSnapshot{}, err
		}
		var batch []model.CompetitorRate
		if usable {
			if batch, err = s.rates.LatestBatch(ctx, c.ID, key); err != nil {
				return model.MarketSnapshot{}, fmt.Errorf("load rates: %w", err)
			}
		}
		obs = append(obs, pricing.NewObservation(c.ID, batch))
	}

	own, err := s.ownRates.Get(ctx, tenantID, checkIn)
	if err != nil {
		return model.MarketSnapshot{}, fmt.Errorf("load own rate: %w", err)
	}
	sum := pricing.Aggregate(obs)
	return model.MarketSnapshot{
		TenantID:       tenantID,
		CheckInDate:    checkIn,
		LOS:            s.defaults.LOS,
		Adults:         s.defaults.Adults,
		SnapshotDate:   s.clock.Today(),
		OwnRate:        own,
		CompMin:        sum.Min,
		CompMax:        sum.Max,
		CompAvg:        sum.Avg,
		CompMedian:     sum.Median,
		AvailableCount: sum.AvailableCount,
		SoldOutCount:   sum.SoldOutCount,
		NoRateCount:    sum.NoRateCount,
		SourceCount:    sum.SourceCount,
		BeforeTaxRatio: sum.BeforeTaxRatio,
		Demand:         sum.Demand,
		Confidence:     sum.Confidence,
		IsLatest:       true,
	}, nil
}

func (s *SnapshotService) usable(ctx context.Context, key string, now time.Time) (bool, error) {
	e, err := s.cache.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load cache entry: %w", err)
	}
	return e.StaleUntil != nil && now.Before(*e.StaleUntil), nil
}
