package engine

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fitgrid/studio-reservation/internal/model"
	"github.com/fitgrid/studio-reservation/internal/queue"
)

// CancellationReport summarizes what a cancellation touched.
type CancellationReport struct {
	AlreadyCancelled  bool           `json:"already_cancelled"`
	FootwearCancelled map[string]int `json:"footwear_cancelled"`
	TotalCancelled    int            `json:"total_cancelled"`
}

// CancelOccurrence cancels an occurrence and cascades to its dependent
// footwear reservations, cancelling every pending and confirmed one. The
// cascade is per-item best effort: a failing item is logged and skipped so
// one bad row cannot block the rest. Cancelling an already-cancelled
// occurrence is a reported no-op; the cascade fires exactly once.
func (e *Engine) CancelOccurrence(ctx context.Context, occurrenceID uint64, reason string) (*CancellationReport, error) {
	occ, err := e.occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.IsCancelled {
		return &CancellationReport{AlreadyCancelled: true, FootwearCancelled: map[string]int{}}, nil
	}
	did, err := e.occurrences.MarkCancelled(ctx, occurrenceID, reason)
	if err != nil {
		return nil, err
	}
	if !did {
		// Lost the race to a concurrent cancel; that call owns the cascade.
		return &CancellationReport{AlreadyCancelled: true, FootwearCancelled: map[string]int{}}, nil
	}

	report, err := e.cancelFootwear(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}

	ev := queue.OccurrenceCancelledEvent{
		EventID:           uuid.NewString(),
		OccurrenceID:      occurrenceID,
		StudioID:          occ.StudioID,
		Reason:            reason,
		CancelledAt:       e.now().Format(time.RFC3339),
		FootwearCancelled: report.FootwearCancelled,
		TotalCancelled:    report.TotalCancelled,
	}
	if e.publish != nil {
		e.publish(ctx, ev)
	} else {
		log.Printf("engine: no publisher configured, dropping cancellation event for occurrence %d", occurrenceID)
	}
	return report, nil
}

// cancelFootwear cancels the actionable footwear reservations of an
// occurrence and groups the results by shoe size.
func (e *Engine) cancelFootwear(ctx context.Context, occurrenceID uint64) (*CancellationReport, error) {
	items, err := e.footwear.ListActionableByOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	report := &CancellationReport{FootwearCancelled: map[string]int{}}
	for _, item := range items {
		ok, err := e.footwear.Cancel(ctx, item.ID)
		if err != nil {
			log.Printf("engine: footwear cancel failed for reservation %d: %v", item.ID, err)
			continue
		}
		if !ok {
			continue // another path cancelled it first
		}
		report.FootwearCancelled[item.Size]++
		report.TotalCancelled++
	}
	return report, nil
}

// OccurrenceUpdate carries the mutable fields of a PATCH. Nil means leave
// the field alone.
type OccurrenceUpdate struct {
	MaxCapacity *int
	StudioID    *uint64
	Status      *model.OccurrenceStatus
	Reason      *string
}

// UpdateResult reports the side effects of an occurrence update.
type UpdateResult struct {
	Occurrence      *model.Occurrence   `json:"occurrence"`
	InventoryRows   int                 `json:"inventory_rows,omitempty"`
	DiscardedActive int64               `json:"discarded_active,omitempty"`
	Cancellation    *CancellationReport `json:"cancellation,omitempty"`
}

// ApplyOccurrenceUpdate applies a partial update. A capacity change
// recomputes available spots; a studio change re-points the occurrence and
// rebuilds its inventory from the new room, discarding whatever was on the
// old one; a status change to cancelled routes through the full
// cancellation flow so the cascade and event still fire.
func (e *Engine) ApplyOccurrenceUpdate(ctx context.Context, occurrenceID uint64, upd OccurrenceUpdate) (*UpdateResult, error) {
	occ, err := e.occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	result := &UpdateResult{}

	if upd.MaxCapacity != nil {
		occ.MaxCapacity = *upd.MaxCapacity
		available := occ.MaxCapacity - occ.BookedSpots
		if available < 0 {
			available = 0
		}
		if err := e.occurrences.UpdateCapacity(ctx, occurrenceID, occ.MaxCapacity, available); err != nil {
			return nil, err
		}
	}

	if upd.StudioID != nil && *upd.StudioID != occ.StudioID {
		if _, err := e.studios.GetByID(ctx, *upd.StudioID); err != nil {
			return nil, err
		}
		if err := e.occurrences.UpdateStudio(ctx, occurrenceID, *upd.StudioID); err != nil {
			return nil, err
		}
		rebuilt, discarded, err := e.RegenerateInventory(ctx, occurrenceID)
		if err != nil {
			return nil, err
		}
		result.InventoryRows = rebuilt
		result.DiscardedActive = discarded
		if err := e.ReconcileCounters(ctx, occurrenceID); err != nil {
			log.Printf("engine: counter reconcile failed for occurrence %d: %v", occurrenceID, err)
		}
	}

	if upd.Status != nil && *upd.Status != occ.Status {
		switch {
		case *upd.Status == model.OccurrenceCancelled:
			reason := "cancelled via update"
			if upd.Reason != nil {
				reason = *upd.Reason
			}
			report, err := e.CancelOccurrence(ctx, occurrenceID, reason)
			if err != nil {
				return nil, err
			}
			result.Cancellation = report
		case occ.IsCancelled:
			// Cancellation is terminal. Rewriting status alone would
			// leave is_cancelled set against a non-cancelled status.
			return nil, ErrOccurrenceCancelled
		default:
			if err := e.occurrences.UpdateStatus(ctx, occurrenceID, *upd.Status); err != nil {
				return nil, err
			}
		}
	}

	result.Occurrence, err = e.occurrences.GetByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	return result, nil
}
