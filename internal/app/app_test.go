package app

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rateshop/internal/config"
	"github.com/iliyamo/rateshop/internal/logger"
)

func testSettings() Settings {
	return Settings{
		Base: config.Config{Location: time.UTC},
		RateShop: config.RateShopConfig{
			SystemDailyBudget:  500,
			TenantMonthlyQuota: 200,
			ManualScanDailyCap: 20,
			SchedulerBatchSize: 25,
			DefaultAdults:      2,
			DefaultLOS:         1,
			Currency:           "KRW",
			Locale:             "ko",
			Region:             "kr",
		},
		Vendor: config.VendorConfig{BaseURL: "http://vendor.invalid", Engine: "google_hotels", RatePerMinute: 30},
		Cache:  config.CacheConfig{SearchBackend: "redis", SearchSize: 10, SearchTTL: time.Minute},
	}
}

func TestNewWiresEngineWithoutTouchingTheDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 10, 15, 1, 0, 0, 0, time.UTC)
	e := New(testSettings(), db, nil, func() time.Time { return now }, logger.Discard())

	assert.Equal(t, "google_hotels", e.Defaults.Engine)
	assert.Equal(t, 2, e.Defaults.Adults)
	assert.Equal(t, "KRW", e.Defaults.Currency)
	assert.Equal(t, now, e.Clock.Now())
	assert.False(t, e.SafeMode.Static())
	assert.NotNil(t, e.Scans)
	assert.NotNil(t, e.Search)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobsAreNamedByKey(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e := New(testSettings(), db, nil, time.Now, logger.Discard())
	got := e.Jobs(logger.Discard())

	require.Len(t, got, 4)
	for name, job := range got {
		assert.Equal(t, name, job.Name())
	}
}
