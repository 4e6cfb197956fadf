package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockUsesBusinessTimeZone(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	// 16:30 UTC is already the next day in Seoul.
	c := NewClock(func() time.Time { return time.Date(2026, 10, 31, 16, 30, 0, 0, time.UTC) }, kst)

	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), c.Today())
	assert.Equal(t, time.Date(2026, 10, 31, 15, 0, 0, 0, time.UTC), c.StartOfDay())
	assert.Equal(t, "2026-11", c.Month())
	assert.Equal(t, time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC), c.CheckIn(7))
	assert.Equal(t, 7, c.OffsetOf(time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC)))
}

func TestSearchDefaultsParams(t *testing.T) {
	p := testDefaults.Params("tok", time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-10-20", p.CheckIn)
	assert.Equal(t, "2026-10-21", p.CheckOut)
	assert.Equal(t, 2, p.Adults)
	assert.NotEqual(t, testDefaults.Params("other", time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)).Key(), p.Key())
}
