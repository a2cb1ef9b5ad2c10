package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitgrid/studio-reservation/internal/model"
)

func TestColumnOrder(t *testing.T) {
	tests := []struct {
		name string
		cols int
		mode model.Addressing
		want []int
	}{
		{"left to right", 4, model.AddressingLeftToRight, []int{1, 2, 3, 4}},
		{"right to left", 4, model.AddressingRightToLeft, []int{4, 3, 2, 1}},
		{"center out odd", 5, model.AddressingCenterOut, []int{3, 2, 4, 1, 5}},
		{"center out even", 6, model.AddressingCenterOut, []int{3, 4, 2, 5, 1, 6}},
		{"center out single", 1, model.AddressingCenterOut, []int{1}},
		{"center out pair", 2, model.AddressingCenterOut, []int{1, 2}},
		{"unknown mode falls back to left to right", 3, model.Addressing("diagonal"), []int{1, 2, 3}},
		{"zero columns", 0, model.AddressingLeftToRight, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColumnOrder(tt.cols, tt.mode))
		})
	}
}

func TestGenerate(t *testing.T) {
	t.Run("full grid", func(t *testing.T) {
		got := Generate(2, 3, 6, model.AddressingLeftToRight)
		require.Len(t, got, 6)
		assert.Equal(t, Position{Row: 1, Col: 1}, got[0])
		assert.Equal(t, Position{Row: 2, Col: 3}, got[5])
	})

	t.Run("capacity truncates traversal", func(t *testing.T) {
		got := Generate(2, 5, 7, model.AddressingCenterOut)
		require.Len(t, got, 7)
		// Row 1 filled center-out, then the first two of row 2.
		assert.Equal(t, Position{Row: 1, Col: 3}, got[0])
		assert.Equal(t, Position{Row: 1, Col: 5}, got[4])
		assert.Equal(t, Position{Row: 2, Col: 3}, got[5])
		assert.Equal(t, Position{Row: 2, Col: 2}, got[6])
	})

	t.Run("capacity capped at grid size", func(t *testing.T) {
		assert.Len(t, Generate(2, 2, 100, model.AddressingLeftToRight), 4)
	})

	t.Run("non-positive dimensions yield empty layout", func(t *testing.T) {
		assert.Nil(t, Generate(0, 3, 5, model.AddressingLeftToRight))
		assert.Nil(t, Generate(3, 0, 5, model.AddressingLeftToRight))
		assert.Nil(t, Generate(3, 3, 0, model.AddressingLeftToRight))
	})

	t.Run("positions are unique", func(t *testing.T) {
		got := Generate(4, 6, 24, model.AddressingCenterOut)
		seen := make(map[Position]bool, len(got))
		for _, p := range got {
			assert.False(t, seen[p], "duplicate position %+v", p)
			seen[p] = true
		}
	})
}

func TestRenumber(t *testing.T) {
	t.Run("fills gaps in row-column order", func(t *testing.T) {
		seats := []model.Seat{
			{ID: 10, Row: 2, Col: 1, SeatNumber: 5},
			{ID: 11, Row: 1, Col: 2, SeatNumber: 2},
			{ID: 12, Row: 1, Col: 1, SeatNumber: 1},
		}
		changed := Renumber(seats)
		require.Len(t, changed, 1)
		assert.Equal(t, uint64(10), changed[0].ID)
		assert.Equal(t, 3, changed[0].SeatNumber)
	})

	t.Run("already dense is a no-op", func(t *testing.T) {
		seats := []model.Seat{
			{ID: 1, Row: 1, Col: 1, SeatNumber: 1},
			{ID: 2, Row: 1, Col: 2, SeatNumber: 2},
		}
		assert.Empty(t, Renumber(seats))
	})

	t.Run("zeroed numbers are assigned", func(t *testing.T) {
		seats := []model.Seat{
			{ID: 1, Row: 1, Col: 2},
			{ID: 2, Row: 1, Col: 1},
		}
		changed := Renumber(seats)
		require.Len(t, changed, 2)
		assert.Equal(t, 1, seats[1].SeatNumber)
		assert.Equal(t, 2, seats[0].SeatNumber)
	})
}
