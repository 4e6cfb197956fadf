package model

import "time"

// CacheStatus is the SWR state of a cache entry.  The stored column only
// records the last transition; readers derive the effective status from
// the timestamps (see package swr).
type CacheStatus string

const (
	CacheFresh      CacheStatus = "FRESH"
	CacheStale      CacheStatus = "STALE"
	CacheExpired    CacheStatus = "EXPIRED"
	CacheRefreshing CacheStatus = "REFRESHING"
	CacheFailed     CacheStatus = "FAILED"
	CacheNotFound   CacheStatus = "NOT_FOUND"
)

// CacheEntry represents a row of the `rate_cache_entries` table.  One row
// exists per cache key and is shared by every tenant that tracks the same
// vendor property for the same stay.  Rows are never deleted; retention
// only clears RawPayload.
//
// Fields:
//  CacheKey            – SHA-256 hex of the canonical search params (primary key).
//  Status              – last stored transition.
//  PropertyToken       – vendor property token (materialized for scheduler queries).
//  CheckInDate         – stay start date.
//  CheckOutDate        – stay end date.
//  OffsetDays          – horizon offset at seeding time.
//  Adults              – guest count used in the search.
//  FetchedAt           – last successful vendor fetch.
//  ExpiresAt           – end of the fresh window.
//  StaleUntil          – end of the stale grace window.
//  BackoffUntil        – no refresh attempts before this time.
//  FailStreak          – consecutive failures, capped.
//  RefreshLockUntil    – refresh lock expiry; non-nil and in the future means locked.
//  RefreshingRequestID – request holding the lock (empty for scheduler refreshes).
//  RawPayload          – last vendor response, nil after retention purge.
type CacheEntry struct {
	CacheKey            string
	Status              CacheStatus
	PropertyToken       string
	CheckInDate         time.Time
	CheckOutDate        time.Time
	OffsetDays          int
	Adults              int
	FetchedAt           *time.Time
	ExpiresAt           *time.Time
	StaleUntil          *time.Time
	BackoffUntil        *time.Time
	FailStreak          int
	RefreshLockUntil    *time.Time
	RefreshingRequestID *string
	RawPayload          []byte
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
