// Package engine orchestrates the scheduling and reservation workflows on
// top of the repository layer: seat generation from studio grids, building
// per-occurrence inventory, the reserve/confirm/release state machine, the
// waitlist queue and the cancellation cascade.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/fitgrid/studio-reservation/internal/layout"
	"github.com/fitgrid/studio-reservation/internal/model"
	"github.com/fitgrid/studio-reservation/internal/queue"
	"github.com/fitgrid/studio-reservation/internal/repository"
)

// Denial sentinels. These mark business refusals, not failures; handlers
// map them to 4xx responses.
var (
	// ErrNotBookable means the occurrence is cancelled, started, full or
	// inside the minimum lead time.
	ErrNotBookable = errors.New("occurrence is not open for booking")
	// ErrSeatUnavailable means another holder currently owns the row.
	ErrSeatUnavailable = errors.New("seat is not available")
	// ErrHoldNotConfirmable means the hold lapsed or was never placed.
	ErrHoldNotConfirmable = errors.New("hold is not confirmable")
	// ErrSeatNotBlocked means an unblock was attempted on a row that is
	// not blocked.
	ErrSeatNotBlocked = errors.New("seat is not blocked")
	// ErrOccurrenceCancelled means a lifecycle move was attempted on a
	// cancelled occurrence. Cancellation is terminal.
	ErrOccurrenceCancelled = errors.New("occurrence is cancelled")
	// ErrSeatInUse wraps the repository sentinel for deletion refusals.
	ErrSeatInUse = repository.ErrSeatInUse
)

// Publisher emits a cancellation event to the broker. Decoupled as a
// function value so tests can capture events without a broker.
type Publisher func(ctx context.Context, event queue.OccurrenceCancelledEvent)

// Engine ties the repositories together and owns every multi-step
// workflow. All methods take a context and return explicit errors;
// best-effort side work (waitlist notification, event publishing) is
// logged and never fails the primary operation.
type Engine struct {
	db          *sql.DB
	studios     *repository.StudioRepo
	seats       *repository.SeatRepo
	occurrences *repository.OccurrenceRepo
	assignments *repository.AssignmentRepo
	waitlist    *repository.WaitlistRepo
	footwear    *repository.FootwearRepo
	holdTTL     time.Duration
	publish     Publisher
	now         func() time.Time
}

// New builds an Engine over the given database. A non-positive holdTTL
// falls back to the default hold duration.
func New(db *sql.DB, holdTTL time.Duration) *Engine {
	if holdTTL <= 0 {
		holdTTL = model.DefaultHoldTTL
	}
	return &Engine{
		db:          db,
		studios:     repository.NewStudioRepo(db),
		seats:       repository.NewSeatRepo(db),
		occurrences: repository.NewOccurrenceRepo(db),
		assignments: repository.NewAssignmentRepo(db),
		waitlist:    repository.NewWaitlistRepo(db),
		footwear:    repository.NewFootwearRepo(db),
		holdTTL:     holdTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetPublisher attaches the broker publisher used for cancellation events.
// Without one, events are dropped with a log line.
func (e *Engine) SetPublisher(p Publisher) { e.publish = p }

// Studios exposes the studio repository for plain CRUD handlers.
func (e *Engine) Studios() *repository.StudioRepo { return e.studios }

// Seats exposes the seat repository for read-only listing handlers.
func (e *Engine) Seats() *repository.SeatRepo { return e.seats }

// Occurrences exposes the occurrence repository for read-only handlers.
func (e *Engine) Occurrences() *repository.OccurrenceRepo { return e.occurrences }

// Assignments exposes the assignment repository for ownership checks.
func (e *Engine) Assignments() *repository.AssignmentRepo { return e.assignments }

// GenerateSeats materializes a studio's grid into seat rows numbered in the
// studio's addressing traversal order. An empty layout (zero rows, columns
// or capacity) is a configuration warning, not an error.
func (e *Engine) GenerateSeats(ctx context.Context, s *model.Studio) error {
	positions := layout.Generate(s.GridRows, s.GridCols, s.CapacityPerSeat, s.Addressing)
	if len(positions) == 0 {
		log.Printf("engine: studio %d produced an empty layout (rows=%d cols=%d capacity=%d)",
			s.ID, s.GridRows, s.GridCols, s.CapacityPerSeat)
		return nil
	}
	seats := make([]model.Seat, len(positions))
	for i, p := range positions {
		seats[i] = model.Seat{
			StudioID:   s.ID,
			Row:        p.Row,
			Col:        p.Col,
			SeatNumber: i + 1,
			IsActive:   true,
		}
	}
	return e.seats.CreateBulk(ctx, seats)
}

// EnsureSeats returns the studio's active seats, generating them first if
// the studio has none yet. Lets inventory building work for studios created
// before seat generation existed.
func (e *Engine) EnsureSeats(ctx context.Context, studioID uint64) ([]model.Seat, error) {
	seats, err := e.seats.ListActiveByStudio(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if len(seats) > 0 {
		return seats, nil
	}
	s, err := e.studios.GetByID(ctx, studioID)
	if err != nil {
		return nil, err
	}
	if err := e.GenerateSeats(ctx, s); err != nil {
		return nil, err
	}
	return e.seats.ListActiveByStudio(ctx, studioID)
}

// RegenerateSeats replaces a studio's seat set after a grid change. Seats
// that already appear in assignment history are deactivated so old rows keep
// a valid reference; the rest are deleted outright. A fresh set is then
// generated from the current grid configuration.
func (e *Engine) RegenerateSeats(ctx context.Context, studioID uint64) error {
	s, err := e.studios.GetByID(ctx, studioID)
	if err != nil {
		return err
	}
	existing, err := e.seats.ListByStudio(ctx, studioID)
	if err != nil {
		return err
	}
	for _, seat := range existing {
		hasHistory, err := e.seats.HasAssignmentHistory(ctx, seat.ID)
		if err != nil {
			return err
		}
		if hasHistory {
			if err := e.seats.Deactivate(ctx, seat.ID); err != nil {
				return err
			}
		} else if err := e.seats.Delete(ctx, seat.ID); err != nil {
			return err
		}
	}
	return e.GenerateSeats(ctx, s)
}

// DeleteSeat removes one seat and renumbers the survivors into a dense
// 1..N sequence by grid position. Seats referenced by any assignment row
// are refused with ErrSeatInUse.
func (e *Engine) DeleteSeat(ctx context.Context, seatID uint64) error {
	seat, err := e.seats.GetByID(ctx, seatID)
	if err != nil {
		return err
	}
	hasHistory, err := e.seats.HasAssignmentHistory(ctx, seatID)
	if err != nil {
		return err
	}
	if hasHistory {
		return ErrSeatInUse
	}
	if err := e.seats.Delete(ctx, seatID); err != nil {
		return err
	}
	remaining, err := e.seats.ListActiveByStudio(ctx, seat.StudioID)
	if err != nil {
		return err
	}
	for _, changed := range layout.Renumber(remaining) {
		if err := e.seats.UpdateNumber(ctx, changed.ID, changed.SeatNumber); err != nil {
			return err
		}
	}
	return nil
}
