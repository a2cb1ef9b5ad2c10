// Package queue defines message payloads exchanged over the message broker.
package queue

// OccurrenceCancelledEvent is published when a class occurrence is cancelled.
// It carries the cascade report so downstream consumers can log, notify, or
// trigger refunds without querying the primary database.
type OccurrenceCancelledEvent struct {
	EventID           string         `json:"event_id"`
	OccurrenceID      uint64         `json:"occurrence_id"`
	StudioID          uint64         `json:"studio_id"`
	Reason            string         `json:"reason"`
	CancelledAt       string         `json:"cancelled_at"`
	FootwearCancelled map[string]int `json:"footwear_cancelled"`
	TotalCancelled    int            `json:"total_cancelled"`
}
