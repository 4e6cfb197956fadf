package service

import (
	"time"

	"github.com/iliyamo/rateshop/internal/cachekey"
)

// Clock supplies the current instant and the business time zone that
// defines "today" for daily counters, horizons and month keys.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a clock; nil arguments default to time.Now and UTC.
func NewClock(now func() time.Time, loc *time.Location) Clock {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return Clock{now: now, loc: loc}
}

func (c Clock) Now() time.Time { return c.now().UTC() }

// Today is the local calendar date as midnight UTC, the form stored in DATE
// columns.
func (c Clock) Today() time.Time {
	l := c.now().In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfDay is the instant the local day began.
func (c Clock) StartOfDay() time.Time {
	l := c.now().In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.loc).UTC()
}

// Month is the local month as YYYY-MM.
func (c Clock) Month() string { return c.now().In(c.loc).Format("2006-01") }

// CheckIn returns the check-in date offset days from today.
func (c Clock) CheckIn(offset int) time.Time { return c.Today().AddDate(0, 0, offset) }

// OffsetOf returns the number of days from today to checkIn.
func (c Clock) OffsetOf(checkIn time.Time) int {
	d := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(c.Today()).Hours() / 24)
}

// SearchDefaults are the fixed search parameters of tracked stays.
type SearchDefaults struct {
	Engine   string
	Adults   int
	LOS      int
	Currency string
	Locale   string
	Region   string
}

// Params builds the canonical search for token checking in on checkIn.
func (d SearchDefaults) Params(token string, checkIn time.Time) cachekey.CanonicalSearchParams {
	return cachekey.New(d.Engine, token, checkIn, d.LOS, d.Adults, 0, d.Currency, d.Locale, d.Region)
}
