package cachekey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIgnoresFieldOrder(t *testing.T) {
	a := map[string]any{}
	a["engine"] = "google_hotels"
	a["property_token"] = "tok-1"
	a["adults"] = 2
	a["currency"] = "KRW"

	b := map[string]any{}
	b["currency"] = "KRW"
	b["adults"] = 2
	b["property_token"] = "tok-1"
	b["engine"] = "google_hotels"

	assert.Equal(t, FromFields(a), FromFields(b))
}

func TestKeyIsNormalizedAndDeterministic(t *testing.T) {
	in := time.Date(2026, 10, 20, 15, 30, 0, 0, time.UTC)
	p1 := New("Google_Hotels", " tok-1 ", in, 1, 2, 0, "krw", "KO", "KR")
	p2 := New("google_hotels", "tok-1", in.Add(-10*time.Hour), 1, 2, 0, "KRW", "ko", "kr")

	require.Equal(t, p1, p2)
	assert.Equal(t, p1.Key(), p2.Key())
	assert.Len(t, p1.Key(), 64)
	assert.Regexp(t, "^[0-9a-f]+$", p1.Key())
}

func TestKeyChangesWithDates(t *testing.T) {
	in := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	p1 := New("google_hotels", "tok-1", in, 1, 2, 0, "KRW", "ko", "kr")
	p2 := New("google_hotels", "tok-1", in.AddDate(0, 0, 1), 1, 2, 0, "KRW", "ko", "kr")
	assert.NotEqual(t, p1.Key(), p2.Key())
}

func TestLengthOfStay(t *testing.T) {
	in := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, New("e", "t", in, 3, 2, 0, "KRW", "ko", "kr").LengthOfStay())
	assert.Equal(t, 1, New("e", "t", in, 0, 2, 0, "KRW", "ko", "kr").LengthOfStay())
	assert.Equal(t, "2026-10-21", New("e", "t", in, 1, 2, 0, "KRW", "ko", "kr").CheckOut)
}
