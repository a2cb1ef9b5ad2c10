package engine

import (
	"context"
	"log"

	"github.com/fitgrid/studio-reservation/internal/model"
	"github.com/fitgrid/studio-reservation/internal/repository"
)

// BuildInventory creates the per-seat assignment rows for an occurrence
// from its studio's active seats. Idempotent: seats that already have a row
// are skipped, so calling it twice never duplicates inventory. Individual
// insert failures are logged and skipped; the method reports how many rows
// it created.
func (e *Engine) BuildInventory(ctx context.Context, occurrenceID uint64) (int, error) {
	occ, err := e.occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return 0, err
	}
	seats, err := e.EnsureSeats(ctx, occ.StudioID)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, seat := range seats {
		_, err := e.assignments.GetByOccurrenceAndSeat(ctx, occurrenceID, seat.ID)
		if err == nil {
			continue // row already exists
		}
		if err != repository.ErrAssignmentNotFound {
			return created, err
		}
		code, err := repository.NewCode(occurrenceID, seat.ID)
		if err != nil {
			log.Printf("engine: code generation failed for occurrence %d seat %d: %v", occurrenceID, seat.ID, err)
			continue
		}
		a := model.SeatAssignment{
			OccurrenceID: occurrenceID,
			SeatID:       seat.ID,
			Status:       model.AssignmentAvailable,
			Code:         code,
		}
		if err := e.assignments.Create(ctx, &a); err != nil {
			log.Printf("engine: inventory row failed for occurrence %d seat %d: %v", occurrenceID, seat.ID, err)
			continue
		}
		created++
	}
	return created, nil
}

// RegenerateInventory rebuilds an occurrence's inventory from scratch after
// its studio changed. The delete-then-rebuild runs inside one transaction
// holding a row lock on the occurrence, so no reservation can interleave.
// Active reservations (occupied, or reserved with a live hold) are
// destroyed along with the rest; their count is returned so callers can
// report the damage.
func (e *Engine) RegenerateInventory(ctx context.Context, occurrenceID uint64) (rebuilt int, discardedActive int64, err error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	studioID, err := e.occurrences.LockTx(ctx, tx, occurrenceID)
	if err != nil {
		return 0, 0, err
	}
	discardedActive, err = e.assignments.CountActiveTx(ctx, tx, occurrenceID)
	if err != nil {
		return 0, 0, err
	}
	if _, err = e.assignments.DeleteByOccurrenceTx(ctx, tx, occurrenceID); err != nil {
		return 0, 0, err
	}

	seats, err := e.EnsureSeats(ctx, studioID)
	if err != nil {
		return 0, 0, err
	}
	for _, seat := range seats {
		code, err := repository.NewCode(occurrenceID, seat.ID)
		if err != nil {
			log.Printf("engine: code generation failed for occurrence %d seat %d: %v", occurrenceID, seat.ID, err)
			continue
		}
		a := model.SeatAssignment{
			OccurrenceID: occurrenceID,
			SeatID:       seat.ID,
			Status:       model.AssignmentAvailable,
			Code:         code,
		}
		if err := e.assignments.CreateTx(ctx, tx, &a); err != nil {
			log.Printf("engine: inventory row failed for occurrence %d seat %d: %v", occurrenceID, seat.ID, err)
			continue
		}
		rebuilt++
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true

	if discardedActive > 0 {
		log.Printf("engine: regeneration discarded %d active reservations on occurrence %d", discardedActive, occurrenceID)
	}
	return rebuilt, discardedActive, nil
}
