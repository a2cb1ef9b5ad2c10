package engine

import (
	"context"
	"log"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// CreateOccurrence derives the booking windows that were not supplied,
// persists the occurrence and builds its seat inventory. Inventory failures
// after the occurrence row exists are logged, not fatal; BuildInventory is
// idempotent and can be retried explicitly.
func (e *Engine) CreateOccurrence(ctx context.Context, o *model.Occurrence) error {
	if o.Status == "" {
		o.Status = model.OccurrenceScheduled
	}
	o.DeriveWindows()
	if err := e.occurrences.Create(ctx, o); err != nil {
		return err
	}
	if _, err := e.BuildInventory(ctx, o.ID); err != nil {
		log.Printf("engine: inventory build failed for occurrence %d: %v", o.ID, err)
	}
	return nil
}

// ReserveSeat places a hold on one seat of an occurrence. The occurrence
// must be bookable (not cancelled, not started, spots left, outside the
// minimum lead time); the row itself is claimed with a single conditional
// update, so a lapsed hold by another user is displaced in the same step.
// Returns the row as it stands after the hold.
func (e *Engine) ReserveSeat(ctx context.Context, occurrenceID, seatID, holderID uint64) (*model.SeatAssignment, error) {
	occ, err := e.occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if !occ.Bookable(e.now()) {
		return nil, ErrNotBookable
	}
	a, err := e.assignments.GetByOccurrenceAndSeat(ctx, occurrenceID, seatID)
	if err != nil {
		return nil, err
	}
	ok, err := e.assignments.Reserve(ctx, a.ID, holderID, e.holdTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSeatUnavailable
	}
	return e.assignments.GetByID(ctx, a.ID)
}

// ConfirmSeat promotes a live hold to occupied and books one spot on the
// occurrence. A lapsed hold is refused; the seat must be re-reserved. When
// the cached counters disagree with reality (BookSpot refuses although the
// row confirmed), they are reconciled from the assignment rows instead.
func (e *Engine) ConfirmSeat(ctx context.Context, assignmentID uint64) (*model.SeatAssignment, error) {
	ok, err := e.assignments.Confirm(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHoldNotConfirmable
	}
	a, err := e.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	occ, err := e.occurrences.GetByID(ctx, a.OccurrenceID)
	if err != nil {
		return a, err
	}
	if occ.BookSpot(e.now()) {
		err = e.occurrences.UpdateCounters(ctx, occ.ID, occ.BookedSpots, occ.AvailableSpots, occ.WaitlistCount)
	} else {
		err = e.ReconcileCounters(ctx, occ.ID)
	}
	if err != nil {
		log.Printf("engine: counter update failed for occurrence %d: %v", a.OccurrenceID, err)
	}
	if a.HolderID != nil {
		if err := e.convertWaitlist(ctx, a.OccurrenceID, *a.HolderID); err != nil {
			log.Printf("engine: waitlist conversion failed for occurrence %d: %v", a.OccurrenceID, err)
		}
	}
	return a, nil
}

// convertWaitlist closes the loop for a notified waitlist user who just
// completed a booking, moving their entry to confirmed.
func (e *Engine) convertWaitlist(ctx context.Context, occurrenceID, userID uint64) error {
	head, err := e.waitlist.Head(ctx, occurrenceID)
	if err != nil {
		return err
	}
	if head == nil || head.Status != model.WaitlistNotified || head.UserID != userID {
		return nil
	}
	_, err = e.waitlist.SetStatusFromTo(ctx, head.ID, model.WaitlistNotified, model.WaitlistConfirmed)
	return err
}

// ReleaseSeat returns an assignment row to available from any state. When
// the row was occupied, one spot is handed back on the occurrence and the
// head of the waitlist is offered it. Idempotent; releasing an available
// row succeeds without side effects.
func (e *Engine) ReleaseSeat(ctx context.Context, assignmentID uint64) error {
	a, err := e.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	wasOccupied := a.Status == model.AssignmentOccupied
	if err := e.assignments.Release(ctx, assignmentID); err != nil {
		return err
	}
	if !wasOccupied {
		return nil
	}
	occ, err := e.occurrences.GetByID(ctx, a.OccurrenceID)
	if err != nil {
		return err
	}
	occ.CancelBooking()
	if err := e.occurrences.UpdateCounters(ctx, occ.ID, occ.BookedSpots, occ.AvailableSpots, occ.WaitlistCount); err != nil {
		return err
	}
	if err := e.NotifyNext(ctx, a.OccurrenceID); err != nil {
		log.Printf("engine: waitlist notify failed for occurrence %d: %v", a.OccurrenceID, err)
	}
	return nil
}

// NotifyNext offers a freed spot to the head of the occurrence's waitlist.
// A notified head whose response window lapsed is expired on the spot and
// the next waiting entry gets the offer, so notification never waits for
// the background sweep. A head inside a live window keeps it, and an empty
// queue is a no-op.
func (e *Engine) NotifyNext(ctx context.Context, occurrenceID uint64) error {
	now := e.now()
	for {
		head, err := e.waitlist.Head(ctx, occurrenceID)
		if err != nil {
			return err
		}
		if head == nil {
			return nil
		}
		switch {
		case head.Status == model.WaitlistWaiting:
			ok, err := e.waitlist.MarkNotified(ctx, head.ID, now, now.Add(model.NotifyResponseWindow))
			if err != nil {
				return err
			}
			if ok {
				log.Printf("engine: notified waitlist entry %d (user %d) for occurrence %d", head.ID, head.UserID, occurrenceID)
			}
			return nil
		case head.IsExpired(now):
			if _, err := e.waitlist.SetStatusFromTo(ctx, head.ID, model.WaitlistNotified, model.WaitlistExpired); err != nil {
				return err
			}
			// Stale head cleared; offer the spot to the next entry.
		default:
			// Live window or an already-converted head; leave it be.
			return nil
		}
	}
}

// BlockSeat takes an available inventory row out of service for
// maintenance. Held, occupied or already-blocked rows are refused.
func (e *Engine) BlockSeat(ctx context.Context, assignmentID uint64) error {
	ok, err := e.assignments.SetStatusFromTo(ctx, assignmentID, model.AssignmentAvailable, model.AssignmentBlocked)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := e.assignments.GetByID(ctx, assignmentID); err != nil {
		return err
	}
	return ErrSeatUnavailable
}

// UnblockSeat returns a blocked row to service.
func (e *Engine) UnblockSeat(ctx context.Context, assignmentID uint64) error {
	ok, err := e.assignments.SetStatusFromTo(ctx, assignmentID, model.AssignmentBlocked, model.AssignmentAvailable)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := e.assignments.GetByID(ctx, assignmentID); err != nil {
		return err
	}
	return ErrSeatNotBlocked
}

// JoinWaitlist appends a user to the occurrence's queue. Cancelled
// occurrences are refused; full ones are exactly what the waitlist is for,
// so no capacity check is made.
func (e *Engine) JoinWaitlist(ctx context.Context, occurrenceID, userID uint64, packageID *uint64) (*model.WaitlistEntry, error) {
	occ, err := e.occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.IsCancelled {
		return nil, ErrNotBookable
	}
	entry := model.WaitlistEntry{
		OccurrenceID: occurrenceID,
		UserID:       userID,
		PackageID:    packageID,
		Status:       model.WaitlistWaiting,
		JoinedAt:     e.now(),
	}
	if err := e.waitlist.Create(ctx, &entry); err != nil {
		return nil, err
	}
	occ.AddToWaitlist()
	if err := e.occurrences.UpdateCounters(ctx, occ.ID, occ.BookedSpots, occ.AvailableSpots, occ.WaitlistCount); err != nil {
		log.Printf("engine: counter update failed for occurrence %d: %v", occ.ID, err)
	}
	return &entry, nil
}

// ReconcileCounters recomputes an occurrence's cached counters from the
// assignment and waitlist rows, the source of truth.
func (e *Engine) ReconcileCounters(ctx context.Context, occurrenceID uint64) error {
	occ, err := e.occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return err
	}
	booked, err := e.assignments.CountOccupied(ctx, occurrenceID)
	if err != nil {
		return err
	}
	waiting, err := e.waitlist.CountActive(ctx, occurrenceID)
	if err != nil {
		return err
	}
	available := occ.MaxCapacity - booked
	if available < 0 {
		available = 0
	}
	return e.occurrences.UpdateCounters(ctx, occurrenceID, booked, available, waiting)
}

// SweepExpired releases every lapsed seat hold and expires every overdue
// waitlist notification. Observability only: Reserve and Confirm handle
// lapsed holds on their own, so correctness never depends on the sweep.
func (e *Engine) SweepExpired(ctx context.Context) error {
	released, err := e.assignments.ReleaseAllExpired(ctx)
	if err != nil {
		return err
	}
	expired, err := e.waitlist.ExpireOverdue(ctx)
	if err != nil {
		return err
	}
	if released > 0 || expired > 0 {
		log.Printf("engine: sweep released %d holds, expired %d waitlist entries", released, expired)
	}
	return nil
}
