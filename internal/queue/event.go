// Package queue defines the message payloads exchanged over RabbitMQ and
// the consumer that audits them.
package queue

// RatesRefreshedQueue is the default queue of RatesRefreshedEvent.
const RatesRefreshedQueue = "rates.refreshed"

// RatesRefreshedEvent is published after a successful cache refresh.  It
// carries enough context for audit and analytics consumers without a
// database round trip.
type RatesRefreshedEvent struct {
	CacheKey      string  `json:"cache_key"`
	PropertyToken string  `json:"property_token"`
	CheckInDate   string  `json:"check_in_date"`
	CheckOutDate  string  `json:"check_out_date"`
	TenantID      *uint64 `json:"tenant_id,omitempty"`
	RequestID     string  `json:"request_id,omitempty"`
	Trigger       string  `json:"trigger"`
	RatesCount    int     `json:"rates_count"`
	Competitors   int     `json:"competitors"`
	RefreshedAt   string  `json:"refreshed_at"`
}
