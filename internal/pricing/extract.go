package pricing

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Number coerces a vendor value to a positive float.  Numbers are used as
// is; strings such as "₩123,400" or "$1,234.50" have every character except
// digits and the decimal point stripped first.
func Number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		if v.Float() > 0 {
			return v.Float(), true
		}
	case gjson.String:
		return parseAmount(v.String())
	}
	return 0, false
}

func parseAmount(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := strings.Trim(b.String(), ".")
	if clean == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// Round rounds half away from zero to a whole currency unit.  The engine
// works in a zero-decimal currency, so every stored price is an integer.
func Round(f float64) int64 {
	return decimal.NewFromFloat(f).Round(0).IntPart()
}

// Median returns the rounded median of prices, or nil for an empty input.
func Median(prices []int64) *int64 {
	if len(prices) == 0 {
		return nil
	}
	sorted := append([]int64(nil), prices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		m := sorted[mid]
		return &m
	}
	sum := decimal.NewFromInt(sorted[mid-1]).Add(decimal.NewFromInt(sorted[mid]))
	m := sum.Div(decimal.NewFromInt(2)).Round(0).IntPart()
	return &m
}

// Average returns the rounded mean of prices, or nil for an empty input.
func Average(prices []int64) *int64 {
	if len(prices) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(decimal.NewFromInt(p))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(prices)))).Round(0).IntPart()
	return &avg
}
