package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SafeModeKey is the Redis key of the runtime safe-mode flag.
const SafeModeKey = "rateshop:safe_mode"

// SafeMode is the vendor kill switch.  It is on when configured statically
// or when the Redis flag is set; Redis errors fall back to the static value.
type SafeMode struct {
	static bool
	rdb    *redis.Client
	log    logrus.FieldLogger
}

// NewSafeMode builds the switch.  rdb may be nil.
func NewSafeMode(static bool, rdb *redis.Client, log logrus.FieldLogger) *SafeMode {
	return &SafeMode{static: static, rdb: rdb, log: log.WithField("component", "safe-mode")}
}

func (s *SafeMode) Enabled(ctx context.Context) bool {
	if s.static || s.rdb == nil {
		return s.static
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	v, err := s.rdb.Get(ctx, SafeModeKey).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		s.log.WithError(err).Warn("read safe mode flag")
		return false
	}
	return v == "1"
}

// Set toggles the runtime flag.  The static setting cannot be overridden.
func (s *SafeMode) Set(ctx context.Context, enabled bool) error {
	if s.rdb == nil {
		return ErrSafeModeUnavailable
	}
	if !enabled {
		return s.rdb.Del(ctx, SafeModeKey).Err()
	}
	return s.rdb.Set(ctx, SafeModeKey, "1", 0).Err()
}

// Static reports whether safe mode is forced by configuration.
func (s *SafeMode) Static() bool { return s.static }
