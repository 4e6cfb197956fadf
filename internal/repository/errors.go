// Package repository is the MySQL data access layer.  Repositories take
// explicit timestamps instead of calling UTC_TIMESTAMP() so that callers
// control the clock.
package repository

import "errors"

// ErrNotFound is returned when a looked-up row does not exist.  Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a state transition is rejected because the
// row is no longer in the expected state.  Handlers translate it into
// HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrLockLost is returned by the cache lock releases when the caller no
// longer holds the refresh lock: it expired and another request took it
// over.  The row is left untouched.
var ErrLockLost = errors.New("refresh lock lost")
