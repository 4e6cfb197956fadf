// Package cachekey derives the shared cache key for a vendor search.  Two
// tenants tracking the same property for the same stay dates produce the
// same key, which is what lets one vendor call serve both of them.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in keys and vendor requests.
const DateLayout = "2006-01-02"

// CanonicalSearchParams is the normalized description of one vendor pricing
// search.  Values are normalized by New and must not be mutated afterwards.
type CanonicalSearchParams struct {
	Engine        string
	PropertyToken string
	CheckIn       string // YYYY-MM-DD
	CheckOut      string // YYYY-MM-DD
	Adults        int
	Children      int
	Currency      string
	Locale        string
	Region        string
}

// New builds canonical params for a stay of los nights starting at checkIn.
func New(engine, propertyToken string, checkIn time.Time, los, adults, children int, currency, locale, region string) CanonicalSearchParams {
	if los < 1 {
		los = 1
	}
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	return CanonicalSearchParams{
		Engine:        strings.ToLower(strings.TrimSpace(engine)),
		PropertyToken: strings.TrimSpace(propertyToken),
		CheckIn:       in.Format(DateLayout),
		CheckOut:      in.AddDate(0, 0, los).Format(DateLayout),
		Adults:        adults,
		Children:      children,
		Currency:      strings.ToUpper(strings.TrimSpace(currency)),
		Locale:        strings.ToLower(strings.TrimSpace(locale)),
		Region:        strings.ToLower(strings.TrimSpace(region)),
	}
}

// Fields returns the params as a flat name/value map.
func (p CanonicalSearchParams) Fields() map[string]any {
	return map[string]any{
		"engine":         p.Engine,
		"property_token": p.PropertyToken,
		"check_in_date":  p.CheckIn,
		"check_out_date": p.CheckOut,
		"adults":         p.Adults,
		"children":       p.Children,
		"currency":       p.Currency,
		"hl":             p.Locale,
		"gl":             p.Region,
	}
}

// LengthOfStay returns the number of nights between check-in and check-out.
func (p CanonicalSearchParams) LengthOfStay() int {
	in, err1 := time.Parse(DateLayout, p.CheckIn)
	out, err2 := time.Parse(DateLayout, p.CheckOut)
	if err1 != nil || err2 != nil || !out.After(in) {
		return 1
	}
	return int(out.Sub(in).Hours() / 24)
}

// CheckInDate returns the check-in date as midnight UTC.
func (p CanonicalSearchParams) CheckInDate() time.Time {
	in, err := time.Parse(DateLayout, p.CheckIn)
	if err != nil {
		return time.Time{}
	}
	return in
}

// Key returns the lowercase hex SHA-256 digest of the params.
func (p CanonicalSearchParams) Key() string {
	return FromFields(p.Fields())
}

// FromFields hashes an arbitrary field map.  Keys are sorted before
// serialization so insertion order never changes the digest.
func FromFields(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(fields[k])
		if err != nil {
			vb = []byte("null")
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
