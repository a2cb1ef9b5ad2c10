// Package layout turns a studio's grid configuration into the ordered set
// of physical seat positions for that room.  It is pure: persistence and
// logging belong to the callers.
package layout

import (
	"sort"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// Position is one (row, column) grid cell, 1-based.
type Position struct {
	Row int
	Col int
}

// ColumnOrder returns the column traversal order for one row under the
// given addressing mode.  For center-out with an odd column count the
// order starts at the center and alternates left then right; with an even
// count it starts at the center-left pair and alternates outward.
func ColumnOrder(cols int, mode model.Addressing) []int {
	if cols <= 0 {
		return nil
	}
	order := make([]int, 0, cols)
	switch mode {
	case model.AddressingRightToLeft:
		for c := cols; c >= 1; c-- {
			order = append(order, c)
		}
	case model.AddressingCenterOut:
		if cols%2 == 1 {
			center := (cols + 1) / 2
			order = append(order, center)
			for d := 1; len(order) < cols; d++ {
				if center-d >= 1 {
					order = append(order, center-d)
				}
				if center+d <= cols {
					order = append(order, center+d)
				}
			}
		} else {
			left := cols / 2
			right := left + 1
			order = append(order, left, right)
			for d := 1; len(order) < cols; d++ {
				if left-d >= 1 {
					order = append(order, left-d)
				}
				if right+d <= cols {
					order = append(order, right+d)
				}
			}
		}
	default: // left-to-right
		for c := 1; c <= cols; c++ {
			order = append(order, c)
		}
	}
	return order
}

// Generate walks rows 1..rows and, within each row, the columns in the
// order given by the addressing mode, emitting positions until capacity
// seats have been produced.  The result length is
// min(capacity, rows*cols).  Non-positive dimensions or capacity yield an
// empty layout; callers treat that as a configuration warning, not an
// error.
func Generate(rows, cols, capacity int, mode model.Addressing) []Position {
	if rows <= 0 || cols <= 0 || capacity <= 0 {
		return nil
	}
	if max := rows * cols; capacity > max {
		capacity = max
	}
	order := ColumnOrder(cols, mode)
	positions := make([]Position, 0, capacity)
	for r := 1; r <= rows; r++ {
		for _, c := range order {
			positions = append(positions, Position{Row: r, Col: c})
			if len(positions) == capacity {
				return positions
			}
		}
	}
	return positions
}

// Renumber assigns a dense, gap-free 1..N seat_number sequence over the
// given seats ordered by (row, column), fixing zeroed and out-of-sequence
// numbers.  It returns the seats whose number changed so callers persist
// only those.  Run after any seat is added or removed.
func Renumber(seats []model.Seat) []model.Seat {
	sorted := make([]*model.Seat, len(seats))
	for i := range seats {
		sorted[i] = &seats[i]
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})
	var changed []model.Seat
	for i, s := range sorted {
		want := i + 1
		if s.SeatNumber != want {
			s.SeatNumber = want
			changed = append(changed, *s)
		}
	}
	return changed
}
