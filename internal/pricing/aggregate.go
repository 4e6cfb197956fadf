package pricing

import (
	"strings"

	"github.com/iliyamo/rateshop/internal/model"
)

// Observation is everything known about one competitor for one stay: the
// rate rows of its most recent scrape, or SoldOut when that scrape
// returned the property without offers.
type Observation struct {
	CompetitorID uint64
	Rates        []model.CompetitorRate
	SoldOut      bool
}

// Summary is the market aggregate written into a snapshot.
type Summary struct {
	Min            *int64
	Max            *int64
	Avg            *int64
	Median         *int64
	AvailableCount int
	SoldOutCount   int
	NoRateCount    int
	SourceCount    int
	BeforeTaxRatio float64
	Demand         model.Demand
	Confidence     model.Confidence
}

// IsSoldOutMarker reports whether r is the placeholder row written when a
// refresh returned the property without any offer.
func IsSoldOutMarker(r model.CompetitorRate) bool {
	return r.Status == model.RateSoldOut && r.Source == ""
}

// NewObservation classifies the latest scrape batch of one competitor.
// Marker rows are dropped from Rates.
func NewObservation(competitorID uint64, batch []model.CompetitorRate) Observation {
	o := Observation{CompetitorID: competitorID}
	for _, r := range batch {
		if IsSoldOutMarker(r) {
			o.SoldOut = true
			continue
		}
		o.Rates = append(o.Rates, r)
	}
	if BestPrice(o.Rates) != nil {
		o.SoldOut = false
	}
	return o
}

// Availability is AVAILABLE when any source has a price, SOLD_OUT when the
// vendor returned no offers and NO_RATE otherwise.
func (o Observation) Availability() model.RateStatus {
	switch {
	case BestPrice(o.Rates) != nil:
		return model.RateAvailable
	case o.SoldOut:
		return model.RateSoldOut
	default:
		return model.RateNoRate
	}
}

// BestPrice returns the lowest available representative price of rates.
func BestPrice(rates []model.CompetitorRate) *int64 {
	var best *int64
	for _, r := range rates {
		if r.Status != model.RateAvailable || r.RepresentativePrice == nil {
			continue
		}
		if best == nil || *r.RepresentativePrice < *best {
			p := *r.RepresentativePrice
			best = &p
		}
	}
	return best
}

// Aggregate computes market statistics over competitor observations.  Each
// competitor contributes its best price; sources and the before-tax ratio
// are counted across every available rate row.
func Aggregate(obs []Observation) Summary {
	var (
		s         Summary
		prices    []int64
		sources   = make(map[string]bool)
		rows      int
		beforeTax int
	)
	for _, o := range obs {
		best := BestPrice(o.Rates)
		switch {
		case best != nil:
			s.AvailableCount++
			prices = append(prices, *best)
			for _, r := range o.Rates {
				if r.Status != model.RateAvailable || r.RepresentativePrice == nil {
					continue
				}
				rows++
				if r.IsBeforeTax {
					beforeTax++
				}
				if r.Source != "" {
					sources[strings.ToLower(r.Source)] = true
				}
			}
		case o.SoldOut:
			s.SoldOutCount++
		default:
			s.NoRateCount++
		}
	}

	if len(prices) > 0 {
		lo, hi := prices[0], prices[0]
		for _, p := range prices[1:] {
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		s.Min, s.Max = &lo, &hi
		s.Avg = Average(prices)
		s.Median = Median(prices)
	}
	if rows > 0 {
		s.BeforeTaxRatio = float64(beforeTax) / float64(rows)
	}
	s.SourceCount = len(sources)
	s.Demand = ClassifyDemand(s.SoldOutCount, len(obs))
	s.Confidence = ClassifyConfidence(s.AvailableCount, s.SourceCount, s.BeforeTaxRatio)
	return s
}

// ClassifyConfidence grades an aggregate.  HIGH needs at least three
// available competitors, two distinct sources and a before-tax ratio of
// 0.6; MED needs two competitors and one source.
func ClassifyConfidence(available, sources int, beforeTaxRatio float64) model.Confidence {
	switch {
	case available >= 3 && sources >= 2 && beforeTaxRatio >= 0.6:
		return model.ConfidenceHigh
	case available >= 2 && sources >= 1:
		return model.ConfidenceMed
	default:
		return model.ConfidenceLow
	}
}

// ClassifyDemand derives demand strength from the sold-out ratio.
func ClassifyDemand(soldOut, total int) model.Demand {
	if total == 0 {
		return model.DemandNormal
	}
	ratio := float64(soldOut) / float64(total)
	switch {
	case ratio >= 0.4:
		return model.DemandStrong
	case ratio < 0.1 && total >= 3:
		return model.DemandWeak
	default:
		return model.DemandNormal
	}
}
