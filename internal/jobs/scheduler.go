package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/cachekey"
	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/service"
	"github.com/iliyamo/rateshop/internal/swr"
)

// SchedulerCache is the part of the cache store the scheduler needs.
type SchedulerCache interface {
	Ensure(ctx context.Context, e model.CacheEntry) error
	ListRefreshCandidates(ctx context.Context, dates []time.Time, now time.Time, limit int) ([]model.CacheEntry, error)
}

type TokenLister interface {
	ListActiveTokens(ctx context.Context) ([]string, error)
}

type BudgetChecker interface {
	CheckSystemBudget(ctx context.Context) error
}

type Refresher interface {
	ExecuteRefresh(ctx context.Context, key string, params cachekey.CanonicalSearchParams, tenantID *uint64, requestID string) (service.RefreshResult, error)
}

// SchedulerStats summarizes one scheduler tick.
type SchedulerStats struct {
	Seeded     int
	Candidates int
	Refreshed  int
	Failed     int
	Skipped    int
	Stopped    bool
}

// Scheduler keeps tracked stays warm.  Each tick seeds a cache entry for
// every actively tracked token and horizon offset, then refreshes up to
// BatchSize stale or expired entries.  Scheduler refreshes are charged to
// the system budget only.
type Scheduler struct {
	cache     SchedulerCache
	tokens    TokenLister
	budget    BudgetChecker
	refresh   Refresher
	defaults  service.SearchDefaults
	clock     service.Clock
	offsets   []int
	batchSize int
	log       logrus.FieldLogger
}

func NewScheduler(cache SchedulerCache, tokens TokenLister, budget BudgetChecker, refresh Refresher, defaults service.SearchDefaults, clock service.Clock, batchSize int, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cache:     cache,
		tokens:    tokens,
		budget:    budget,
		refresh:   refresh,
		defaults:  defaults,
		clock:     clock,
		offsets:   swr.SupportedOffsets,
		batchSize: batchSize,
		log:       log.WithField("component", "scheduler"),
	}
}

func (s *Scheduler) Name() string { return "scheduler" }

func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.Tick(ctx)
	return err
}

// Tick runs one scheduling pass.  It stops early, without error, when the
// system budget is exhausted or safe mode is on.
func (s *Scheduler) Tick(ctx context.Context) (SchedulerStats, error) {
	var st SchedulerStats

	tokens, err := s.tokens.ListActiveTokens(ctx)
	if err != nil {
		return st, fmt.Errorf("list tracked tokens: %w", err)
	}
	dates := make([]time.Time, 0, len(s.offsets))
	for _, offset := range s.offsets {
		checkIn := s.clock.CheckIn(offset)
		dates = append(dates, checkIn)
		for _, token := range tokens {
			p := s.defaults.Params(token, checkIn)
			if err := s.cache.Ensure(ctx, model.CacheEntry{
				CacheKey:      p.Key(),
				PropertyToken: p.PropertyToken,
				CheckInDate:   checkIn,
				CheckOutDate:  checkIn.AddDate(0, 0, p.LengthOfStay()),
				OffsetDays:    offset,
				Adults:        p.Adults,
			}); err != nil {
				return st, fmt.Errorf("seed cache entry: %w", err)
			}
			st.Seeded++
		}
	}

	candidates, err := s.cache.ListRefreshCandidates(ctx, dates, s.clock.Now(), s.batchSize)
	if err != nil {
		return st, fmt.Errorf("list refresh candidates: %w", err)
	}
	st.Candidates = len(candidates)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if err := s.budget.CheckSystemBudget(ctx); err != nil {
			if errors.Is(err, service.ErrSystemBudgetExhausted) || errors.Is(err, service.ErrSafeMode) {
				s.log.WithError(err).Warn("scheduler stopped early")
				st.Stopped = true
				break
			}
			return st, err
		}

		params := s.defaults.Params(c.PropertyToken, c.CheckInDate)
		log := s.log.WithField("cache_key", c.CacheKey)
		if params.Key() != c.CacheKey {
			// Seeded under different search defaults; left to age out.
			log.Debug("skipping entry with foreign search params")
			st.Skipped++
			continue
		}
		_, err := s.refresh.ExecuteRefresh(ctx, c.CacheKey, params, nil, "")
		switch {
		case errors.Is(err, service.ErrRefreshInProgress):
			st.Skipped++
		case err != nil:
			log.WithError(err).Warn("scheduled refresh failed")
			st.Failed++
		default:
			st.Refreshed++
		}
	}

	s.log.WithFields(logrus.Fields{
		"seeded":     st.Seeded,
		"candidates": st.Candidates,
		"refreshed":  st.Refreshed,
		"failed":     st.Failed,
		"skipped":    st.Skipped,
	}).Info("scheduler tick done")
	return st, nil
}
