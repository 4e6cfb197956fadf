package pricing

import "strings"

// sourceNames maps lowercased vendor source labels to canonical names.
var sourceNames = map[string]string{
	"agoda":         "Agoda",
	"agoda.com":     "Agoda",
	"booking.com":   "Booking.com",
	"booking":       "Booking.com",
	"expedia":       "Expedia",
	"expedia.com":   "Expedia",
	"expedia.co.kr": "Expedia",
	"hotels.com":    "Hotels.com",
	"trip.com":      "Trip.com",
	"trip":          "Trip.com",
	"priceline":     "Priceline",
	"priceline.com": "Priceline",
	"trivago":       "Trivago",
	"yanolja":       "Yanolja",
	"야놀자":           "Yanolja",
	"goodchoice":    "Yeogi",
	"yeogi":         "Yeogi",
	"여기어때":          "Yeogi",
	"interpark":     "Interpark",
	"인터파크":          "Interpark",
	"official site": "Official Site",
	"official":      "Official Site",
	"hotel website": "Official Site",
}

// NormalizeSource maps a free-text vendor source label to the canonical
// vocabulary.  Lookup is case-insensitive; unknown labels are returned
// trimmed but otherwise unchanged.
func NormalizeSource(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if name, ok := sourceNames[strings.ToLower(trimmed)]; ok {
		return name
	}
	return trimmed
}
