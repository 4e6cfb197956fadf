package model

import "time"

// Confidence grades how comparable a price (or an aggregate) is.
type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceMed  Confidence = "MED"
	ConfidenceLow  Confidence = "LOW"
)

// RateStatus describes what a vendor source said about a stay.
type RateStatus string

const (
	RateAvailable RateStatus = "AVAILABLE"
	RateNoRate    RateStatus = "NO_RATE"
	RateSoldOut   RateStatus = "SOLD_OUT"
)

// CompetitorRate is one immutable row per (competitor, cache entry, source,
// scrape time).  A refresh always inserts new rows.  RepresentativePrice is
// nil exactly when PriceSourceLevel is 0.
//
// Fields:
//  PriceSourceLevel – 1 total before tax, 2 total lowest, 3 nightly before
//                     tax × LOS, 4 nightly lowest × LOS, 0 no price.
//  IsBeforeTax      – the source supplied a before-tax figure.
type CompetitorRate struct {
	ID                  uint64
	TenantID            uint64
	CompetitorID        uint64
	CacheKey            string
	CheckInDate         time.Time
	Source              string
	RawSource           string
	RepresentativePrice *int64
	PriceSourceLevel    int
	Confidence          Confidence
	Status              RateStatus
	IsBeforeTax         bool
	ScrapedAt           time.Time
}
