package model

import "time"

// Demand classifies market pressure from the share of sold-out competitors.
type Demand string

const (
	DemandStrong Demand = "STRONG"
	DemandNormal Demand = "NORMAL"
	DemandWeak   Demand = "WEAK"
)

// MarketSnapshot is the daily aggregate of competitor rates for one tenant
// and stay.  At most one row per (TenantID, CheckInDate, LOS, Adults) has
// IsLatest set.
//
// Fields:
//  SnapshotDate      – the day the aggregate was built.
//  OwnRate           – the tenant's own rate, when entered.
//  CompMin..CompMedian – statistics over available competitor prices.
//  AvailableCount    – competitors with a usable price.
//  SoldOutCount      – competitors whose fetch returned no offers.
//  NoRateCount       – competitors with no usable data.
//  SourceCount       – distinct normalized sources among available rates.
//  BeforeTaxRatio    – share of available rates priced before tax.
type MarketSnapshot struct {
	ID             uint64
	TenantID       uint64
	CheckInDate    time.Time
	LOS            int
	Adults         int
	SnapshotDate   time.Time
	OwnRate        *int64
	CompMin        *int64
	CompMax        *int64
	CompAvg        *int64
	CompMedian     *int64
	AvailableCount int
	SoldOutCount   int
	NoRateCount    int
	SourceCount    int
	BeforeTaxRatio float64
	Demand         Demand
	Confidence     Confidence
	IsLatest       bool
	CreatedAt      time.Time
}
