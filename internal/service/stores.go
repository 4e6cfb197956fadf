package service

import (
	"context"
	"time"

	"github.com/iliyamo/rateshop/internal/cachekey"
	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/queue"
	"github.com/iliyamo/rateshop/internal/vendor"
)

// The interfaces below are implemented by package repository and by the
// vendor client; services depend only on the methods they call.

type CacheStore interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Ensure(ctx context.Context, e model.CacheEntry) error
	AcquireLock(ctx context.Context, key, requestID string, now time.Time) (bool, error)
	ReleaseSuccess(ctx context.Context, key, requestID string, payload []byte, fetchedAt, expiresAt, staleUntil time.Time) error
	ReleaseFailure(ctx context.Context, key, requestID string, now time.Time) (int, time.Time, error)
}

type CompetitorStore interface {
	GetActiveByToken(ctx context.Context, tenantID uint64, token string) (*model.Competitor, error)
	ListActiveByToken(ctx context.Context, token string) ([]model.Competitor, error)
	ListActiveByTenant(ctx context.Context, tenantID uint64) ([]model.Competitor, error)
}

type RateStore interface {
	InsertBatch(ctx context.Context, rates []model.CompetitorRate) error
	LatestBatch(ctx context.Context, competitorID uint64, cacheKey string) ([]model.CompetitorRate, error)
}

type RequestStore interface {
	Create(ctx context.Context, req model.RateShopRequest) error
	Finish(ctx context.Context, req model.RateShopRequest) error
	CountSince(ctx context.Context, tenantID uint64, since time.Time) (int, error)
}

type UsageStore interface {
	IncrementDaily(ctx context.Context, day time.Time) error
	IncrementTenantMonthly(ctx context.Context, tenantID uint64, month string) error
	DailyCalls(ctx context.Context, day time.Time) (int, error)
	TenantMonthlyCalls(ctx context.Context, tenantID uint64, month string) (int, error)
}

type QuotaOverrideStore interface {
	MonthlyQuota(ctx context.Context, tenantID uint64) (int, bool, error)
}

type OwnRateStore interface {
	Get(ctx context.Context, tenantID uint64, checkIn time.Time) (*int64, error)
	Upsert(ctx context.Context, rate model.OwnRate) error
}

type SnapshotStore interface {
	SaveLatest(ctx context.Context, s model.MarketSnapshot) (uint64, error)
	ListLatest(ctx context.Context, from time.Time) ([]model.MarketSnapshot, error)
}

type RecommendationStore interface {
	Create(ctx context.Context, rec model.Recommendation) (bool, error)
	ListByTenant(ctx context.Context, tenantID uint64, status model.RecommendationStatus) ([]model.Recommendation, error)
	Decide(ctx context.Context, tenantID, id uint64, status model.RecommendationStatus, now time.Time) error
}

type PricingClient interface {
	PropertyPricing(ctx context.Context, p cachekey.CanonicalSearchParams) ([]byte, error)
}

type HotelSearcher interface {
	SearchHotels(ctx context.Context, query, locale, region string) ([]vendor.Hotel, error)
}

// EventPublisher announces completed refreshes.  Publishing is best effort.
type EventPublisher interface {
	PublishRatesRefreshed(ctx context.Context, ev queue.RatesRefreshedEvent) error
}

type SafeModeChecker interface {
	Enabled(ctx context.Context) bool
}
