package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/cachekey"
	"github.com/iliyamo/rateshop/internal/metrics"
	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/pricing"
	"github.com/iliyamo/rateshop/internal/queue"
	"github.com/iliyamo/rateshop/internal/repository"
	"github.com/iliyamo/rateshop/internal/swr"
	"github.com/iliyamo/rateshop/internal/vendor"
)

// Refresh triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduler = "scheduler"
)

// vendorDeadline bounds the limiter wait and the vendor call made under a
// lock.  It stays below swr.LockTTL so that the lock cannot expire while
// its holder is still waiting on the vendor.
const vendorDeadline = swr.LockTTL - 10*time.Second

// RefreshResult describes one ExecuteRefresh call.
type RefreshResult struct {
	Success        bool
	RatesCount     int
	Competitors    int
	CreditConsumed bool
	ErrorMessage   string
}

// UsageRecorder records vendor calls against the budgets.
type UsageRecorder interface {
	RecordSystemCall(ctx context.Context) error
	RecordTenantCall(ctx context.Context, tenantID uint64) error
}

// Orchestrator runs the refresh sequence of one cache key: lock, vendor
// call, parse, fan-out, release, usage.  It is the only writer of cache
// entries after creation.
type Orchestrator struct {
	cache       CacheStore
	competitors CompetitorStore
	rates       RateStore
	vendor      PricingClient
	usage       UsageRecorder
	events      EventPublisher
	clock       Clock
	log         logrus.FieldLogger
	newID       func() string
}

// NewOrchestrator wires the orchestrator.  events may be nil.
func NewOrchestrator(cache CacheStore, competitors CompetitorStore, rates RateStore, client PricingClient, usage UsageRecorder, events EventPublisher, clock Clock, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		cache:       cache,
		competitors: competitors,
		rates:       rates,
		vendor:      client,
		usage:       usage,
		events:      events,
		clock:       clock,
		log:         log.WithField("component", "refresh"),
		newID:       uuid.NewString,
	}
}

// ExecuteRefresh refreshes key.  A nil tenantID marks a scheduler refresh,
// which is charged to the system budget only.  An empty requestID is
// replaced by a generated one so that every lock has an identified holder.  ErrRefreshInProgress means
// another caller holds the lock.  Once the lock is acquired it is released
// on every exit path, with failure bookkeeping unless the success release
// went through.
func (o *Orchestrator) ExecuteRefresh(ctx context.Context, key string, params cachekey.CanonicalSearchParams, tenantID *uint64, requestID string) (RefreshResult, error) {
	trigger := TriggerScheduler
	if tenantID != nil {
		trigger = TriggerManual
	}
	if requestID == "" {
		requestID = o.newID()
	}
	log := o.log.WithFields(logrus.Fields{"cache_key": key, "trigger": trigger, "request_id": requestID})

	acquired, err := o.cache.AcquireLock(ctx, key, requestID, o.clock.Now())
	if err != nil {
		return RefreshResult{}, fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !acquired {
		metrics.Refreshes.WithLabelValues(trigger, "coalesced").Inc()
		return RefreshResult{}, ErrRefreshInProgress
	}

	released := false
	defer func() {
		if !released {
			o.releaseFailure(ctx, key, requestID, log)
			metrics.Refreshes.WithLabelValues(trigger, "failed").Inc()
		}
	}()

	vctx, cancel := context.WithTimeout(ctx, vendorDeadline)
	payload, err := o.vendor.PropertyPricing(vctx, params)
	cancel()
	if !errors.Is(err, vendor.ErrNotDispatched) {
		if rerr := o.usage.RecordSystemCall(ctx); rerr != nil {
			log.WithError(rerr).Error("record system usage")
		}
	}
	if err != nil {
		if vendor.IsRateLimited(err) {
			log.WithError(err).Warn("vendor rate limited")
		} else {
			log.WithError(err).Warn("vendor call failed")
		}
		return RefreshResult{ErrorMessage: err.Error()}, fmt.Errorf("vendor pricing: %w", err)
	}

	parsed, err := pricing.Parse(payload, params.LengthOfStay())
	if err != nil {
		log.WithError(err).Warn("vendor payload rejected")
		return RefreshResult{ErrorMessage: err.Error()}, fmt.Errorf("parse vendor payload: %w", err)
	}
	if len(parsed.Rates) == 0 {
		log.Info("vendor returned the property without offers")
	}

	now := o.clock.Now()
	checkIn := params.CheckInDate()
	competitors := o.fanOut(ctx, key, params.PropertyToken, checkIn, parsed, now, log)

	expiresAt, staleUntil := swr.TTLForOffset(o.clock.OffsetOf(checkIn)).Window(now)
	if err := o.cache.ReleaseSuccess(ctx, key, requestID, payload, now, expiresAt, staleUntil); err != nil {
		if errors.Is(err, repository.ErrLockLost) {
			// The newer holder owns the row; there is nothing left to release.
			released = true
			log.Warn("refresh lock taken over before release")
		}
		return RefreshResult{ErrorMessage: err.Error()}, fmt.Errorf("release refresh lock: %w", err)
	}
	released = true
	metrics.Refreshes.WithLabelValues(trigger, "success").Inc()

	res := RefreshResult{Success: true, RatesCount: len(parsed.Rates), Competitors: competitors}
	if tenantID != nil {
		// Billed conservatively: the vendor gives no reliable signal that a
		// call was served from its own cache.
		res.CreditConsumed = true
		if err := o.usage.RecordTenantCall(ctx, *tenantID); err != nil {
			log.WithError(err).Error("record tenant usage")
		}
	}
	log.WithFields(logrus.Fields{"rates": res.RatesCount, "competitors": competitors}).Info("cache refreshed")

	o.publish(ctx, queue.RatesRefreshedEvent{
		CacheKey:      key,
		PropertyToken: params.PropertyToken,
		CheckInDate:   params.CheckIn,
		CheckOutDate:  params.CheckOut,
		TenantID:      tenantID,
		RequestID:     requestID,
		Trigger:       trigger,
		RatesCount:    res.RatesCount,
		Competitors:   competitors,
		RefreshedAt:   now.Format(time.RFC3339),
	}, log)
	return res, nil
}

// fanOut writes the parsed rates to every active competitor tracking token.
// Each competitor is written independently; a failed write is logged and
// does not affect the others or the cache state.  It returns the number of
// competitors written.
func (o *Orchestrator) fanOut(ctx context.Context, key, token string, checkIn time.Time, parsed pricing.ParseResult, scrapedAt time.Time, log logrus.FieldLogger) int {
	comps, err := o.competitors.ListActiveByToken(ctx, token)
	if err != nil {
		log.WithError(err).Error("list fan-out competitors")
		return 0
	}
	written := 0
	for _, c := range comps {
		if err := o.rates.InsertBatch(ctx, competitorRates(c, key, checkIn, parsed, scrapedAt)); err != nil {
			log.WithError(err).WithFields(logrus.Fields{"tenant_id": c.TenantID, "competitor_id": c.ID}).Error("fan-out write failed")
			continue
		}
		written++
	}
	return written
}

// competitorRates converts a parse result into the rows of one competitor.
// An empty result becomes a single SOLD_OUT marker row.
func competitorRates(c model.Competitor, key string, checkIn time.Time, parsed pricing.ParseResult, scrapedAt time.Time) []model.CompetitorRate {
	base := model.CompetitorRate{
		TenantID:     c.TenantID,
		CompetitorID: c.ID,
		CacheKey:     key,
		CheckInDate:  checkIn,
		ScrapedAt:    scrapedAt,
	}
	if len(parsed.Rates) == 0 {
		marker := base
		marker.Status = model.RateSoldOut
		marker.Confidence = model.ConfidenceLow
		return []model.CompetitorRate{marker}
	}
	out := make([]model.CompetitorRate, 0, len(parsed.Rates))
	for _, p := range parsed.Rates {
		r := base
		r.Source = p.Source
		r.RawSource = p.RawSource
		r.RepresentativePrice = p.Price
		r.PriceSourceLevel = p.Level
		r.Confidence = p.Confidence
		r.Status = p.Status
		r.IsBeforeTax = p.IsBeforeTax
		out = append(out, r)
	}
	return out
}

// releaseFailure runs on a context detached from the caller so that a
// cancelled request still releases its lock.
func (o *Orchestrator) releaseFailure(ctx context.Context, key, requestID string, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	streak, until, err := o.cache.ReleaseFailure(ctx, key, requestID, o.clock.Now())
	if errors.Is(err, repository.ErrLockLost) {
		log.Warn("refresh lock taken over before failure release")
		return
	}
	if err != nil {
		log.WithError(err).Error("release refresh lock after failure")
		return
	}
	log.WithFields(logrus.Fields{"fail_streak": streak, "backoff_until": until}).Warn("refresh failed, backing off")
}

func (o *Orchestrator) publish(ctx context.Context, ev queue.RatesRefreshedEvent, log logrus.FieldLogger) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishRatesRefreshed(ctx, ev); err != nil {
		log.WithError(err).Warn("publish refresh event")
	}
}
