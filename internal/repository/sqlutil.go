package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/rateshop/internal/cachekey"
)

// dateArg formats the calendar date of t for a DATE column.
func dateArg(t time.Time) string {
	return t.Format(cachekey.DateLayout)
}

func nullTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullStringArg(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullInt64Arg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
