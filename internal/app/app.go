// Package app wires repositories, the vendor client and services from
// configuration.  The server and the worker share it.
package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/config"
	"github.com/iliyamo/rateshop/internal/database"
	"github.com/iliyamo/rateshop/internal/jobs"
	"github.com/iliyamo/rateshop/internal/repository"
	"github.com/iliyamo/rateshop/internal/service"
	"github.com/iliyamo/rateshop/internal/vendor"
)

// Settings is every configuration block the engine reads.
type Settings struct {
	Base      config.Config
	RateShop  config.RateShopConfig
	Vendor    config.VendorConfig
	AMQP      config.AMQPConfig
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Retention config.RetentionConfig
}

// LoadSettings reads .env and then the environment.
func LoadSettings() Settings {
	config.LoadDotenv()
	return Settings{
		Base:      config.Load(),
		RateShop:  config.LoadRateShopConfig(),
		Vendor:    config.LoadVendorConfig(),
		AMQP:      config.LoadAMQPConfig(),
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Retention: config.LoadRetentionConfig(),
	}
}

// Repos are the MySQL stores.
type Repos struct {
	Cache           *repository.CacheEntryRepo
	Competitors     *repository.CompetitorRepo
	Rates           *repository.CompetitorRateRepo
	Requests        *repository.RateShopRequestRepo
	Usage           *repository.UsageRepo
	Quotas          *repository.TenantQuotaRepo
	OwnRates        *repository.OwnRateRepo
	Snapshots       *repository.SnapshotRepo
	Recommendations *repository.RecommendationRepo
}

func NewRepos(db *sql.DB) Repos {
	return Repos{
		Cache:           repository.NewCacheEntryRepo(db),
		Competitors:     repository.NewCompetitorRepo(db),
		Rates:           repository.NewCompetitorRateRepo(db),
		Requests:        repository.NewRateShopRequestRepo(db),
		Usage:           repository.NewUsageRepo(db),
		Quotas:          repository.NewTenantQuotaRepo(db),
		OwnRates:        repository.NewOwnRateRepo(db),
		Snapshots:       repository.NewSnapshotRepo(db),
		Recommendations: repository.NewRecommendationRepo(db),
	}
}

// Engine holds the wired services.
type Engine struct {
	Settings Settings
	DB       *sql.DB
	Redis    *redis.Client
	Repos    Repos
	Clock    service.Clock
	Defaults service.SearchDefaults

	SafeMode        *service.SafeMode
	Quota           *service.QuotaService
	Vendor          *vendor.Client
	Refresh         *service.Orchestrator
	Scans           *service.ScanService
	View            *service.ViewService
	Search          *service.SearchService
	OwnRates        *service.OwnRateService
	Snapshots       *service.SnapshotService
	Recommendations *service.RecommendationService
}

// Open connects to MySQL and Redis and wires the services.  Redis is
// optional.
func Open(ctx context.Context, s Settings, log logrus.FieldLogger) (*Engine, error) {
	b := s.Base
	db, err := database.Open(ctx, database.DSN(b.DBUser, b.DBPass, b.DBHost, b.DBPort, b.DBName), log)
	if err != nil {
		return nil, err
	}
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting, response cache and runtime safe mode disabled")
	}
	return New(s, db, rdb, time.Now, log), nil
}

// New wires the services over an open database.  rdb may be nil.
func New(s Settings, db *sql.DB, rdb *redis.Client, now func() time.Time, log logrus.FieldLogger) *Engine {
	repos := NewRepos(db)
	clock := service.NewClock(now, s.Base.Location)
	rs := s.RateShop
	defaults := service.SearchDefaults{
		Engine:   s.Vendor.Engine,
		Adults:   rs.DefaultAdults,
		LOS:      rs.DefaultLOS,
		Currency: rs.Currency,
		Locale:   rs.Locale,
		Region:   rs.Region,
	}

	safe := service.NewSafeMode(rs.SafeMode, rdb, log)
	quota := service.NewQuotaService(service.QuotaLimits{
		SystemDailyBudget:  rs.SystemDailyBudget,
		TenantMonthlyQuota: rs.TenantMonthlyQuota,
		ManualScanDailyCap: rs.ManualScanDailyCap,
	}, repos.Requests, repos.Usage, repos.Quotas, safe, clock, log)

	client := vendor.New(vendor.Config{
		BaseURL:       s.Vendor.BaseURL,
		APIKey:        s.Vendor.APIKey,
		Timeout:       s.Vendor.Timeout,
		RatePerMinute: s.Vendor.RatePerMinute,
	}, log)

	// A nil *AMQPPublisher must not reach the orchestrator as a non-nil
	// interface.
	var events service.EventPublisher
	if s.AMQP.Enabled {
		events = service.NewAMQPPublisher(s.AMQP.URL, s.AMQP.Queue, log)
	}
	refresh := service.NewOrchestrator(repos.Cache, repos.Competitors, repos.Rates, client, quota, events, clock, log)

	var searchCache service.SearchCache = service.NewMemorySearchCache(s.Cache.SearchSize, s.Cache.SearchTTL, now)
	if s.Cache.SearchBackend == "redis" && rdb != nil {
		searchCache = service.NewRedisSearchCache(rdb, s.Cache.SearchTTL, log)
	}

	return &Engine{
		Settings: s,
		DB:       db,
		Redis:    rdb,
		Repos:    repos,
		Clock:    clock,
		Defaults: defaults,

		SafeMode:        safe,
		Quota:           quota,
		Vendor:          client,
		Refresh:         refresh,
		Scans:           service.NewScanService(repos.Competitors, repos.Cache, repos.Requests, quota, refresh, defaults, clock, log),
		View:            service.NewViewService(repos.Competitors, repos.Cache, repos.Rates, repos.OwnRates, defaults, clock, log),
		Search:          service.NewSearchService(client, searchCache, quota, defaults, log),
		OwnRates:        service.NewOwnRateService(repos.OwnRates, clock),
		Snapshots:       service.NewSnapshotService(repos.Competitors, repos.Cache, repos.Rates, repos.OwnRates, repos.Snapshots, defaults, clock, log),
		Recommendations: service.NewRecommendationService(repos.Snapshots, repos.Recommendations, clock, log),
	}
}

// Jobs returns the periodic jobs by name.
func (e *Engine) Jobs(log logrus.FieldLogger) map[string]jobs.Job {
	r := e.Repos
	return map[string]jobs.Job{
		"scheduler": jobs.NewScheduler(r.Cache, r.Competitors, e.Quota, e.Refresh, e.Defaults, e.Clock, e.Settings.RateShop.SchedulerBatchSize, log),
		"snapshot":  jobs.NewSnapshotJob(r.Competitors, e.Snapshots, log),
		"recommend": jobs.NewRecommendJob(e.Recommendations, log),
		"cleanup":   jobs.NewCleanupJob(r.Cache, r.Rates, r.Requests, r.Snapshots, r.Recommendations, e.Settings.Retention, e.Clock, log),
	}
}

// Close releases the database and Redis connections.
func (e *Engine) Close() {
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
	_ = e.DB.Close()
}
