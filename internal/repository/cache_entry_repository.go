package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/swr"
)

const cacheEntryColumns = `cache_key, status, property_token, check_in_date, check_out_date, offset_days, adults,
	fetched_at, expires_at, stale_until, backoff_until, fail_streak, refresh_lock_until,
	refreshing_request_id, raw_payload, created_at, updated_at`

// CacheEntryRepo provides access to rate_cache_entries.  Rows are created
// lazily by Ensure and afterwards only change through the lock and release
// methods.
type CacheEntryRepo struct {
	db *sql.DB
}

func NewCacheEntryRepo(db *sql.DB) *CacheEntryRepo { return &CacheEntryRepo{db: db} }

// Get returns the entry for key or ErrNotFound.
func (r *CacheEntryRepo) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cacheEntryColumns+` FROM rate_cache_entries WHERE cache_key = ?`, key)
	e, err := scanCacheEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Ensure creates the row for e.CacheKey when it does not exist yet.  An
// existing row is left untouched.
func (r *CacheEntryRepo) Ensure(ctx context.Context, e model.CacheEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO rate_cache_entries
		   (cache_key, status, property_token, check_in_date, check_out_date, offset_days, adults, fail_streak)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		e.CacheKey, string(model.CacheExpired), e.PropertyToken,
		dateArg(e.CheckInDate), dateArg(e.CheckOutDate), e.OffsetDays, e.Adults,
	)
	return err
}

// AcquireLock takes the refresh lock in a single conditional UPDATE.  It
// reports false when another holder's lock has not yet expired; the caller
// must then coalesce instead of calling the vendor.
func (r *CacheEntryRepo) AcquireLock(ctx context.Context, key, requestID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rate_cache_entries
		    SET status = ?, refresh_lock_until = ?, refreshing_request_id = ?
		  WHERE cache_key = ? AND (refresh_lock_until IS NULL OR refresh_lock_until < ?)`,
		string(model.CacheRefreshing), now.Add(swr.LockTTL).UTC(), nullStringArg(&requestID),
		key, now.UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseSuccess stores the new payload, opens a new TTL window, clears
// the failure streak and drops the lock.  Only the lock holder identified
// by requestID may release; otherwise ErrLockLost is returned.
func (r *CacheEntryRepo) ReleaseSuccess(ctx context.Context, key, requestID string, payload []byte, fetchedAt, expiresAt, staleUntil time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rate_cache_entries
		    SET status = ?, fetched_at = ?, expires_at = ?, stale_until = ?, backoff_until = NULL,
		        fail_streak = 0, refresh_lock_until = NULL, refreshing_request_id = NULL, raw_payload = ?
		  WHERE cache_key = ? AND refreshing_request_id <=> ?`,
		string(model.CacheFresh), fetchedAt.UTC(), expiresAt.UTC(), staleUntil.UTC(), payload,
		key, nullStringArg(&requestID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

// ReleaseFailure records a failed refresh: the streak is incremented up to
// swr.MaxFailStreak, backoff_until is set from the ladder step of the
// previous streak and the lock is dropped.  It returns the new streak and
// the backoff deadline, or ErrLockLost when requestID no longer holds the
// lock.
func (r *CacheEntryRepo) ReleaseFailure(ctx context.Context, key, requestID string, now time.Time) (int, time.Time, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, time.Time{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		streak int
		holder sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT fail_streak, refreshing_request_id FROM rate_cache_entries WHERE cache_key = ? FOR UPDATE`, key,
	).Scan(&streak, &holder)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, ErrNotFound
	}
	if err != nil {
		return 0, time.Time{}, err
	}
	if holder.String != requestID {
		return 0, time.Time{}, ErrLockLost
	}

	until := now.Add(swr.Backoff(streak))
	next := swr.NextFailStreak(streak)
	if _, err := tx.ExecContext(ctx,
		`UPDATE rate_cache_entries
		    SET status = ?, fail_streak = ?, backoff_until = ?, refresh_lock_until = NULL, refreshing_request_id = NULL
		  WHERE cache_key = ?`,
		string(model.CacheFailed), next, until.UTC(), key,
	); err != nil {
		return 0, time.Time{}, err
	}
	if err := tx.Commit(); err != nil {
		return 0, time.Time{}, err
	}
	committed = true
	return next, until, nil
}

// ListRefreshCandidates returns stale or expired rows for the given
// check-in dates that are neither locked nor in backoff and still tracked
// by an active competitor.  Nearest check-in dates come first, then the
// longest-expired (never fetched rows sort first).
func (r *CacheEntryRepo) ListRefreshCandidates(ctx context.Context, dates []time.Time, now time.Time, limit int) ([]model.CacheEntry, error) {
	if len(dates) == 0 || limit <= 0 {
		return nil, nil
	}
	args := make([]any, 0, len(dates)+4)
	for _, d := range dates {
		args = append(args, dateArg(d))
	}
	args = append(args, now.UTC(), now.UTC(), now.UTC(), limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cacheEntryColumns+` FROM rate_cache_entries e
		  WHERE e.check_in_date IN (`+placeholders(len(dates))+`)
		    AND (e.refresh_lock_until IS NULL OR e.refresh_lock_until < ?)
		    AND (e.backoff_until IS NULL OR e.backoff_until <= ?)
		    AND (e.expires_at IS NULL OR e.expires_at <= ?)
		    AND EXISTS (SELECT 1 FROM competitors c WHERE c.property_token = e.property_token AND c.is_active = 1)
		  ORDER BY e.check_in_date ASC, e.expires_at ASC
		  LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CacheEntry
	for rows.Next() {
		e, err := scanCacheEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// PurgeRawPayloads nulls payloads fetched before cutoff.  Rows are kept for
// key continuity.
func (r *CacheEntryRepo) PurgeRawPayloads(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rate_cache_entries SET raw_payload = NULL WHERE raw_payload IS NOT NULL AND fetched_at < ?`,
		cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCacheEntry(s rowScanner) (*model.CacheEntry, error) {
	var (
		e                                                model.CacheEntry
		status                                           string
		fetched, expires, stale, backoffUntil, lockUntil sql.NullTime
		requestID                                        sql.NullString
	)
	err := s.Scan(&e.CacheKey, &status, &e.PropertyToken, &e.CheckInDate, &e.CheckOutDate, &e.OffsetDays, &e.Adults,
		&fetched, &expires, &stale, &backoffUntil, &e.FailStreak, &lockUntil,
		&requestID, &e.RawPayload, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Status = model.CacheStatus(status)
	e.FetchedAt = timePtr(fetched)
	e.ExpiresAt = timePtr(expires)
	e.StaleUntil = timePtr(stale)
	e.BackoffUntil = timePtr(backoffUntil)
	e.RefreshLockUntil = timePtr(lockUntil)
	e.RefreshingRequestID = stringPtr(requestID)
	return &e, nil
}
