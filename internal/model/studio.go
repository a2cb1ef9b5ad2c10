package model

import "time"

// Addressing is the traversal order used when numbering seats across a
// studio's columns.  It determines the order in which the layout generator
// walks each row, and therefore which grid positions receive the lowest
// seat numbers.
type Addressing string

const (
	// AddressingLeftToRight walks every row from column 1 to column C.
	AddressingLeftToRight Addressing = "left_to_right"
	// AddressingRightToLeft walks every row from column C down to column 1.
	AddressingRightToLeft Addressing = "right_to_left"
	// AddressingCenterOut starts at the center column of each row and
	// alternates outward (left, right, left, ...).
	AddressingCenterOut Addressing = "center_out"
)

// Valid reports whether a is one of the known addressing modes.
func (a Addressing) Valid() bool {
	switch a {
	case AddressingLeftToRight, AddressingRightToLeft, AddressingCenterOut:
		return true
	}
	return false
}

// Studio represents a physical room with a rectangular seat grid.  The
// number of seats actually instantiated is CapacityPerSeat, which may be
// lower than GridRows*GridCols when the room is not fully seated.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – display name of the room.
//  GridRows        – number of rows in the seating grid.
//  GridCols        – number of columns in the seating grid.
//  CapacityPerSeat – number of seats to instantiate (<= GridRows*GridCols).
//  Addressing      – traversal order used to number seats.
//  IsActive        – whether the studio is active.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Studio struct {
	ID              uint64     // studios.id
	Name            string     // studios.name
	GridRows        int        // studios.grid_rows
	GridCols        int        // studios.grid_cols
	CapacityPerSeat int        // studios.capacity_per_seat
	Addressing      Addressing // studios.addressing
	IsActive        bool       // studios.is_active
	CreatedAt       time.Time  // studios.created_at
	UpdatedAt       time.Time  // studios.updated_at
}
