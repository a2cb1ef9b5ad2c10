package engine

import (
	"context"
	"sort"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// SeatCell is one grid position in a seat map. Status is the effective
// assignment status at read time, or "empty" for a grid cell with no seat.
type SeatCell struct {
	SeatID       uint64 `json:"seat_id,omitempty"`
	SeatNumber   int    `json:"seat_number,omitempty"`
	AssignmentID uint64 `json:"assignment_id,omitempty"`
	Status       string `json:"status"`
}

// SeatMap is the occurrence-level view of a studio grid: cell statuses laid
// out row by row plus summary counts. Holds that lapsed are shown as
// available and tallied separately under "expired".
type SeatMap struct {
	OccurrenceID uint64           `json:"occurrence_id"`
	StudioID     uint64           `json:"studio_id"`
	StudioName   string           `json:"studio_name"`
	GridRows     int              `json:"grid_rows"`
	GridCols     int              `json:"grid_cols"`
	Addressing   model.Addressing `json:"addressing"`
	Rows         [][]SeatCell     `json:"rows"`
	ByStatus     map[string][]int `json:"by_status"`
	Counts       map[string]int   `json:"counts"`
}

// BuildSeatMap assembles the seat map for one occurrence. Effective
// statuses are computed against a single read-time instant so the whole map
// is self-consistent.
func (e *Engine) BuildSeatMap(ctx context.Context, occurrenceID uint64) (*SeatMap, error) {
	occ, err := e.occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	studio, err := e.studios.GetByID(ctx, occ.StudioID)
	if err != nil {
		return nil, err
	}
	seats, err := e.seats.ListActiveByStudio(ctx, occ.StudioID)
	if err != nil {
		return nil, err
	}
	assignments, err := e.assignments.ListByOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}

	bySeat := make(map[uint64]*model.SeatAssignment, len(assignments))
	for i := range assignments {
		bySeat[assignments[i].SeatID] = &assignments[i]
	}

	now := e.now()
	m := &SeatMap{
		OccurrenceID: occurrenceID,
		StudioID:     studio.ID,
		StudioName:   studio.Name,
		GridRows:     studio.GridRows,
		GridCols:     studio.GridCols,
		Addressing:   studio.Addressing,
		ByStatus:     map[string][]int{},
		Counts: map[string]int{
			"available": 0, "reserved": 0, "occupied": 0,
			"blocked": 0, "expired": 0, "empty": 0,
		},
	}

	grid := make([][]SeatCell, studio.GridRows)
	for r := range grid {
		grid[r] = make([]SeatCell, studio.GridCols)
		for c := range grid[r] {
			grid[r][c] = SeatCell{Status: "empty"}
		}
	}
	for _, seat := range seats {
		if seat.Row < 1 || seat.Row > studio.GridRows || seat.Col < 1 || seat.Col > studio.GridCols {
			continue // stale seat from an older grid
		}
		cell := SeatCell{SeatID: seat.ID, SeatNumber: seat.SeatNumber, Status: "empty"}
		if a, ok := bySeat[seat.ID]; ok {
			cell.AssignmentID = a.ID
			cell.Status = string(a.EffectiveStatus(now))
			if a.IsExpired(now) {
				m.Counts["expired"]++
			}
		}
		grid[seat.Row-1][seat.Col-1] = cell
	}
	for r := range grid {
		for c := range grid[r] {
			cell := grid[r][c]
			m.Counts[cell.Status]++
			if cell.SeatID != 0 {
				m.ByStatus[cell.Status] = append(m.ByStatus[cell.Status], cell.SeatNumber)
			}
		}
	}
	for _, nums := range m.ByStatus {
		sort.Ints(nums)
	}
	m.Rows = grid
	return m, nil
}
