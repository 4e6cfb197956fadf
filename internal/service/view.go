package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/metrics"
	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/pricing"
	"github.com/iliyamo/rateshop/internal/repository"
	"github.com/iliyamo/rateshop/internal/swr"
)

// SourceRate is one vendor source's price for a competitor.
type SourceRate struct {
	Source      string           `json:"source"`
	Price       *int64           `json:"price"`
	Level       int              `json:"price_source_level"`
	Confidence  model.Confidence `json:"confidence"`
	Status      model.RateStatus `json:"status"`
	IsBeforeTax bool             `json:"is_before_tax"`
}

// CompetitorView is the latest known state of one competitor for a stay.
type CompetitorView struct {
	CompetitorID  uint64            `json:"competitor_id"`
	Name          string            `json:"name"`
	PropertyToken string            `json:"property_token"`
	CacheStatus   model.CacheStatus `json:"cache_status"`
	Availability  model.RateStatus  `json:"availability"`
	BestPrice     *int64            `json:"best_price"`
	ScrapedAt     *time.Time        `json:"scraped_at,omitempty"`
	Rates         []SourceRate      `json:"rates"`
}

// DayView is the view model of one horizon offset.
type DayView struct {
	OffsetDays    int               `json:"offset_days"`
	CheckInDate   string            `json:"check_in_date"`
	OwnRate       *int64            `json:"own_rate"`
	Freshness     model.CacheStatus `json:"freshness"`
	MixedTaxBasis bool              `json:"mixed_tax_basis"`
	Competitors   []CompetitorView  `json:"competitors"`
}

// ViewService builds the rates screen.  Reads never call the vendor; stale
// rows are picked up by the scheduler.
type ViewService struct {
	competitors CompetitorStore
	cache       CacheStore
	rates       RateStore
	ownRates    OwnRateStore
	defaults    SearchDefaults
	clock       Clock
	log         logrus.FieldLogger
}

func NewViewService(competitors CompetitorStore, cache CacheStore, rates RateStore, ownRates OwnRateStore, defaults SearchDefaults, clock Clock, log logrus.FieldLogger) *ViewService {
	return &ViewService{
		competitors: competitors,
		cache:       cache,
		rates:       rates,
		ownRates:    ownRates,
		defaults:    defaults,
		clock:       clock,
		log:         log.WithField("component", "view"),
	}
}

// freshnessRank orders statuses from best to worst for the day badge.
var freshnessRank = map[model.CacheStatus]int{
	model.CacheFresh:      0,
	model.CacheRefreshing: 1,
	model.CacheStale:      2,
	model.CacheFailed:     3,
	model.CacheExpired:    4,
	model.CacheNotFound:   5,
}

// RatesView returns one DayView per offset, in the given order.  An empty
// offsets list means every supported offset.
func (v *ViewService) RatesView(ctx context.Context, tenantID uint64, offsets []int) ([]DayView, error) {
	if len(offsets) == 0 {
		offsets = swr.SupportedOffsets
	}
	for _, o := range offsets {
		if !swr.IsSupportedOffset(o) {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedOffset, o)
		}
	}
	comps, err := v.competitors.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}

	now := v.clock.Now()
	out := make([]DayView, 0, len(offsets))
	for _, offset := range offsets {
		day, err := v.day(ctx, tenantID, offset, comps, now)
		if err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, nil
}

func (v *ViewService) day(ctx context.Context, tenantID uint64, offset int, comps []model.Competitor, now time.Time) (DayView, error) {
	checkIn := v.clock.CheckIn(offset)
	own, err := v.ownRates.Get(ctx, tenantID, checkIn)
	if err != nil {
		return DayView{}, fmt.Errorf("load own rate: %w", err)
	}
	day := DayView{
		OffsetDays:  offset,
		CheckInDate: checkIn.Format("2006-01-02"),
		OwnRate:     own,
		Freshness:   model.CacheNotFound,
		Competitors: make([]CompetitorView, 0, len(comps)),
	}

	var beforeTax, taxIncluded bool
	for i, c := range comps {
		key := v.defaults.Params(c.PropertyToken, checkIn).Key()
		entry, err := v.cache.Get(ctx, key)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return DayView{}, fmt.Errorf("load cache entry: %w", err)
		}
		status := swr.Status(entry, now)
		metrics.CacheReads.WithLabelValues(string(status)).Inc()
		if i == 0 || freshnessRank[status] > freshnessRank[day.Freshness] {
			day.Freshness = status
		}

		batch, err := v.rates.LatestBatch(ctx, c.ID, key)
		if err != nil {
			return DayView{}, fmt.Errorf("load rates: %w", err)
		}
		obs := pricing.NewObservation(c.ID, batch)
		cv := CompetitorView{
			CompetitorID:  c.ID,
			Name:          c.Name,
			PropertyToken: c.PropertyToken,
			CacheStatus:   status,
			Availability:  obs.Availability(),
			BestPrice:     pricing.BestPrice(obs.Rates),
			Rates:         make([]SourceRate, 0, len(obs.Rates)),
		}
		if len(batch) > 0 {
			at := batch[0].ScrapedAt
			cv.ScrapedAt = &at
		}
		for _, r := range obs.Rates {
			cv.Rates = append(cv.Rates, SourceRate{
				Source:      r.Source,
				Price:       r.RepresentativePrice,
				Level:       r.PriceSourceLevel,
				Confidence:  r.Confidence,
				Status:      r.Status,
				IsBeforeTax: r.IsBeforeTax,
			})
			if r.RepresentativePrice == nil {
				continue
			}
			if pricing.IsBeforeTaxLevel(r.PriceSourceLevel) {
				beforeTax = true
			} else {
				taxIncluded = true
			}
		}
		day.Competitors = append(day.Competitors, cv)
	}
	day.MixedTaxBasis = beforeTax && taxIncluded
	return day, nil
}
