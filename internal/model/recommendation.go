package model

import "time"

// RecommendationStatus values.  PENDING is the only non-terminal state.
type RecommendationStatus string

const (
	RecommendationPending  RecommendationStatus = "PENDING"
	RecommendationAccepted RecommendationStatus = "ACCEPTED"
	RecommendationRejected RecommendationStatus = "REJECTED"
	RecommendationExpired  RecommendationStatus = "EXPIRED"
)

// Reason tags attached to a recommendation.
const (
	TagOverpriced         = "OVERPRICED"
	TagUnderpriced        = "UNDERPRICED"
	TagCompetitive        = "COMPETITIVE"
	TagHighDemandBuffer   = "HIGH_DEMAND_BUFFER"
	TagCompetitorsSoldOut = "COMPETITORS_SOLD_OUT"
	TagLowDemandCaution   = "LOW_DEMAND_CAUTION"
)

// Recommendation is a suggested own-rate change derived from one snapshot.
type Recommendation struct {
	ID            uint64
	TenantID      uint64
	SnapshotID    uint64
	CheckInDate   time.Time
	CurrentRate   int64
	SuggestedRate int64
	CompMedian    int64
	GapPct        float64
	Tags          []string
	Status        RecommendationStatus
	CreatedAt     time.Time
	DecidedAt     *time.Time
}
