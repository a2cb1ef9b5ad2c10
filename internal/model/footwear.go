package model

import "time"

// FootwearStatus enumerates the states of a footwear-loan reservation.
// The loan subsystem itself is an external collaborator; this engine only
// cascade-cancels its reservations when an occurrence is cancelled.
type FootwearStatus string

const (
	FootwearPending   FootwearStatus = "pending"
	FootwearConfirmed FootwearStatus = "confirmed"
	FootwearCanceled  FootwearStatus = "canceled"
)

// FootwearReservation is a dependent record tied to an occurrence.  When
// the occurrence is cancelled, every pending or confirmed reservation is
// transitioned to canceled, grouped by size for reporting.
type FootwearReservation struct {
	ID           uint64         // footwear_reservations.id
	OccurrenceID uint64         // footwear_reservations.occurrence_id
	UserID       uint64         // footwear_reservations.user_id
	Size         string         // footwear_reservations.size
	Status       FootwearStatus // footwear_reservations.status
	CreatedAt    time.Time      // footwear_reservations.created_at
	UpdatedAt    time.Time      // footwear_reservations.updated_at
}
