// Package swr holds the stale-while-revalidate policy of the rate cache:
// the TTL tiers, the failure backoff ladder and the read-time status
// derivation.  Everything here is a pure function of its inputs.
package swr

import (
	"time"

	"github.com/iliyamo/rateshop/internal/model"
)

// LockTTL is how long a refresh lock is held before it self-expires.
const LockTTL = 60 * time.Second

// MaxFailStreak caps CacheEntry.FailStreak.
const MaxFailStreak = 5

// SupportedOffsets is the whitelist of horizon offsets (days from today)
// that can be scanned and that the scheduler keeps warm.
var SupportedOffsets = []int{0, 1, 3, 7, 14, 30, 60}

var backoffLadder = []time.Duration{
	5 * time.Minute,
	15 * time.Minute,
	60 * time.Minute,
	120 * time.Minute,
	360 * time.Minute,
}

// TTL is the fresh window followed by the stale grace window.
type TTL struct {
	Fresh time.Duration
	Grace time.Duration
}

// TTLForOffset returns the tier for a check-in offsetDays days away.
func TTLForOffset(offsetDays int) TTL {
	switch {
	case offsetDays <= 14:
		return TTL{Fresh: 2 * time.Hour, Grace: 2 * time.Hour}
	case offsetDays <= 30:
		return TTL{Fresh: 8 * time.Hour, Grace: 6 * time.Hour}
	default:
		return TTL{Fresh: 24 * time.Hour, Grace: 12 * time.Hour}
	}
}

// Window returns expires_at and stale_until for a fetch completed at now.
func (t TTL) Window(now time.Time) (expiresAt, staleUntil time.Time) {
	expiresAt = now.Add(t.Fresh)
	return expiresAt, expiresAt.Add(t.Grace)
}

// Backoff returns the wait imposed after a failure when failStreak earlier
// failures were already recorded.  Streaks past the ladder use its last step.
func Backoff(failStreak int) time.Duration {
	if failStreak < 0 {
		failStreak = 0
	}
	if failStreak >= len(backoffLadder) {
		failStreak = len(backoffLadder) - 1
	}
	return backoffLadder[failStreak]
}

// NextFailStreak increments a streak without passing MaxFailStreak.
func NextFailStreak(failStreak int) int {
	if failStreak+1 > MaxFailStreak {
		return MaxFailStreak
	}
	return failStreak + 1
}

// Status derives the effective status of e at now.  A nil entry reads as
// NOT_FOUND.
func Status(e *model.CacheEntry, now time.Time) model.CacheStatus {
	if e == nil {
		return model.CacheNotFound
	}
	switch {
	case after(e.RefreshLockUntil, now):
		return model.CacheRefreshing
	case after(e.BackoffUntil, now):
		return model.CacheFailed
	case after(e.ExpiresAt, now):
		return model.CacheFresh
	case after(e.StaleUntil, now):
		return model.CacheStale
	default:
		return model.CacheExpired
	}
}

// NeedsRefresh reports whether a status should trigger a vendor refresh.
func NeedsRefresh(s model.CacheStatus) bool {
	return s == model.CacheStale || s == model.CacheExpired || s == model.CacheNotFound
}

// IsSupportedOffset reports whether offset is in SupportedOffsets.
func IsSupportedOffset(offset int) bool {
	for _, o := range SupportedOffsets {
		if o == offset {
			return true
		}
	}
	return false
}

func after(t *time.Time, now time.Time) bool {
	return t != nil && t.After(now)
}
