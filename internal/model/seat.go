package model

import "time"

// Seat describes one physical bookable position inside a studio's grid.
// Seats are uniquely identified by their studio and (row, column) pair.
// SeatNumber is a dense 1..N sequence assigned in traversal order at
// generation time and repaired by renumbering whenever the seat set
// changes.  Seats that have historical assignment rows are deactivated
// rather than deleted.
//
// Fields:
//  ID         – primary key identifier.
//  StudioID   – studio to which this seat belongs (exclusive ownership).
//  Row        – 1-based grid row.
//  Col        – 1-based grid column.
//  SeatNumber – dense sequence number within the studio.
//  IsActive   – whether the seat participates in inventory building.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64    // seats.id
	StudioID   uint64    // seats.studio_id
	Row        int       // seats.row_pos
	Col        int       // seats.col_pos
	SeatNumber int       // seats.seat_number
	IsActive   bool      // seats.is_active
	CreatedAt  time.Time // seats.created_at
	UpdatedAt  time.Time // seats.updated_at
}
