// Package pricing turns vendor pricing responses into normalized rate
// records and aggregates them into market statistics.
package pricing

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/iliyamo/rateshop/internal/model"
)

// ErrMalformedPayload is returned when a vendor response is not valid JSON.
var ErrMalformedPayload = errors.New("malformed vendor payload")

// Price source levels, in priority order.
const (
	LevelNone = iota
	LevelTotalBeforeTax
	LevelTotalLowest
	LevelNightlyBeforeTax
	LevelNightlyLowest
)

// ParsedRate is one vendor source entry reduced to a representative price.
type ParsedRate struct {
	Source      string
	RawSource   string
	Price       *int64
	Level       int
	Confidence  model.Confidence
	Status      model.RateStatus
	IsBeforeTax bool
}

// ParseResult is the outcome of parsing one vendor property response.
type ParseResult struct {
	PropertyName   string
	Rates          []ParsedRate
	BeforeTaxRatio float64
}

// Parse extracts one ParsedRate per normalized vendor source.  When a
// source repeats, the entry with the best price level is kept.  Unknown fields are
// ignored.  An empty result is not an error: it means the vendor returned
// the property without any offers.
func Parse(payload []byte, los int) (ParseResult, error) {
	if !gjson.ValidBytes(payload) {
		return ParseResult{}, ErrMalformedPayload
	}
	if los < 1 {
		los = 1
	}
	doc := gjson.ParseBytes(payload)
	res := ParseResult{PropertyName: strings.TrimSpace(doc.Get("name").String())}

	index := make(map[string]int)
	collect := func(entries gjson.Result) {
		entries.ForEach(func(_, entry gjson.Result) bool {
			raw := entry.Get("source").String()
			rate := selectPrice(entry, los)
			rate.Source = NormalizeSource(raw)
			rate.RawSource = raw

			k := strings.ToLower(rate.Source)
			if i, ok := index[k]; ok {
				if betterLevel(rate.Level, res.Rates[i].Level) {
					res.Rates[i] = rate
				}
				return true
			}
			index[k] = len(res.Rates)
			res.Rates = append(res.Rates, rate)
			return true
		})
	}
	collect(doc.Get("prices"))
	collect(doc.Get("featured_prices"))

	beforeTax := 0
	for _, r := range res.Rates {
		if r.IsBeforeTax {
			beforeTax++
		}
	}
	if len(res.Rates) > 0 {
		res.BeforeTaxRatio = float64(beforeTax) / float64(len(res.Rates))
	}
	return res, nil
}

// betterLevel reports whether a repeated source entry priced at level
// should replace the one kept at current.  Any price beats none; among
// priced entries the higher priority level wins and ties keep the first.
func betterLevel(level, current int) bool {
	if level == LevelNone {
		return false
	}
	return current == LevelNone || level < current
}

// selectPrice applies the 4-level priority: total before tax, total lowest,
// nightly before tax × LOS, nightly lowest × LOS.
func selectPrice(entry gjson.Result, los int) ParsedRate {
	total := entry.Get("total_rate")
	nightly := entry.Get("rate_per_night")

	totalBT, hasTotalBT := amount(total, "before_taxes_fees")
	nightlyBT, hasNightlyBT := amount(nightly, "before_taxes_fees")
	out := ParsedRate{IsBeforeTax: hasTotalBT || hasNightlyBT}

	var price float64
	switch {
	case hasTotalBT:
		price, out.Level = totalBT, LevelTotalBeforeTax
	case has(total, "lowest"):
		price, _ = amount(total, "lowest")
		out.Level = LevelTotalLowest
	case hasNightlyBT:
		price, out.Level = nightlyBT*float64(los), LevelNightlyBeforeTax
	case has(nightly, "lowest"):
		p, _ := amount(nightly, "lowest")
		price, out.Level = p*float64(los), LevelNightlyLowest
	default:
		out.Level = LevelNone
		out.Confidence = model.ConfidenceLow
		out.Status = model.RateNoRate
		return out
	}

	rounded := Round(price)
	out.Price = &rounded
	out.Status = model.RateAvailable
	out.Confidence = ConfidenceForLevel(out.Level)
	return out
}

// ConfidenceForLevel maps a price source level to its confidence.
func ConfidenceForLevel(level int) model.Confidence {
	switch level {
	case LevelTotalBeforeTax:
		return model.ConfidenceHigh
	case LevelTotalLowest, LevelNightlyBeforeTax, LevelNightlyLowest:
		return model.ConfidenceMed
	default:
		return model.ConfidenceLow
	}
}

// IsBeforeTaxLevel reports whether the chosen price excludes taxes.
func IsBeforeTaxLevel(level int) bool {
	return level == LevelTotalBeforeTax || level == LevelNightlyBeforeTax
}

// amount reads field from obj, preferring the vendor's extracted_ numeric
// twin over the display string.
func amount(obj gjson.Result, field string) (float64, bool) {
	if !obj.Exists() {
		return 0, false
	}
	if v, ok := Number(obj.Get("extracted_" + field)); ok {
		return v, true
	}
	return Number(obj.Get(field))
}

func has(obj gjson.Result, field string) bool {
	_, ok := amount(obj, field)
	return ok
}
