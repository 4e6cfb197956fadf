package config

import (
	"strings"
	"time"
)

// RateShopConfig holds the budgets and search defaults of the engine.
type RateShopConfig struct {
	SystemDailyBudget  int
	TenantMonthlyQuota int
	ManualScanDailyCap int
	SchedulerBatchSize int
	SchedulerInterval  time.Duration
	SafeMode           bool
	DefaultAdults      int
	DefaultLOS         int
	Currency           string
	Locale             string
	Region             string
}

func LoadRateShopConfig() RateShopConfig {
	return RateShopConfig{
		SystemDailyBudget:  envPositiveInt("SYSTEM_DAILY_BUDGET", 500),
		TenantMonthlyQuota: envPositiveInt("TENANT_MONTHLY_QUOTA", 200),
		ManualScanDailyCap: envPositiveInt("MANUAL_SCAN_DAILY_CAP", 20),
		SchedulerBatchSize: envPositiveInt("SCHEDULER_BATCH_SIZE", 25),
		SchedulerInterval:  envDur("SCHEDULER_INTERVAL", 15*time.Minute),
		SafeMode:           envBool("SAFE_MODE", false),
		DefaultAdults:      envPositiveInt("DEFAULT_ADULTS", 2),
		DefaultLOS:         envPositiveInt("DEFAULT_LOS", 1),
		Currency:           strings.ToUpper(getenv("CURRENCY", "KRW")),
		Locale:             strings.ToLower(getenv("LOCALE", "ko")),
		Region:             strings.ToLower(getenv("REGION", "kr")),
	}
}
