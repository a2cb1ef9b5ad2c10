package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// OccurrenceRepo provides CRUD operations for class occurrences.  All
// timestamp columns are stored in UTC; scheduled_date is a plain DATE and
// start_time/end_time are TIME columns kept as raw strings so that window
// derivation never reapplies formatting.
type OccurrenceRepo struct {
	db *sql.DB
}

// NewOccurrenceRepo returns a new OccurrenceRepo bound to the given database.
func NewOccurrenceRepo(db *sql.DB) *OccurrenceRepo {
	return &OccurrenceRepo{db: db}
}

// Create inserts a new occurrence with its derived window timestamps
// already applied by the model.  On success the generated ID is populated.
func (r *OccurrenceRepo) Create(ctx context.Context, o *model.Occurrence) error {
	const q = `INSERT INTO class_occurrences
	           (class_id, instructor_id, studio_id, scheduled_date, start_time, end_time,
	            max_capacity, booked_spots, available_spots, waitlist_count,
	            booking_opens_at, booking_closes_at, cancellation_deadline,
	            is_cancelled, cancellation_reason, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		o.ClassID, o.InstructorID, o.StudioID,
		o.ScheduledDate.UTC().Format("2006-01-02"), o.StartTime, o.EndTime,
		o.MaxCapacity, o.BookedSpots, o.AvailableSpots, o.WaitlistCount,
		nullTime(o.BookingOpensAt), nullTime(o.BookingClosesAt), nullTime(o.CancellationDeadline),
		o.IsCancelled, nullString(o.CancellationReason), string(o.Status),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetByID retrieves an occurrence by its id.
func (r *OccurrenceRepo) GetByID(ctx context.Context, id uint64) (*model.Occurrence, error) {
	const q = `SELECT id, class_id, instructor_id, studio_id, scheduled_date, start_time, end_time,
	                  max_capacity, booked_spots, available_spots, waitlist_count,
	                  booking_opens_at, booking_closes_at, cancellation_deadline,
	                  is_cancelled, cancellation_reason, status, created_at, updated_at
	           FROM class_occurrences WHERE id = ?`
	var o model.Occurrence
	var opens, closes, deadline sql.NullTime
	var reason sql.NullString
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&o.ID, &o.ClassID, &o.InstructorID, &o.StudioID,
		&o.ScheduledDate, &o.StartTime, &o.EndTime,
		&o.MaxCapacity, &o.BookedSpots, &o.AvailableSpots, &o.WaitlistCount,
		&opens, &closes, &deadline,
		&o.IsCancelled, &reason, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOccurrenceNotFound
		}
		return nil, err
	}
	if opens.Valid {
		t := opens.Time
		o.BookingOpensAt = &t
	}
	if closes.Valid {
		t := closes.Time
		o.BookingClosesAt = &t
	}
	if deadline.Valid {
		t := deadline.Time
		o.CancellationDeadline = &t
	}
	if reason.Valid {
		s := reason.String
		o.CancellationReason = &s
	}
	o.Status = model.OccurrenceStatus(status)
	return &o, nil
}

// LockTx takes a row lock on the occurrence for the duration of the
// transaction and returns its studio id.  Inventory regeneration uses this
// as its coarse lock: delete-then-rebuild must not interleave with
// concurrent reservations on the same occurrence.
func (r *OccurrenceRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (uint64, error) {
	const q = `SELECT studio_id FROM class_occurrences WHERE id = ? FOR UPDATE`
	var studioID uint64
	if err := tx.QueryRowContext(ctx, q, id).Scan(&studioID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrOccurrenceNotFound
		}
		return 0, err
	}
	return studioID, nil
}

// UpdateCounters persists the capacity-counter cache.
func (r *OccurrenceRepo) UpdateCounters(ctx context.Context, id uint64, booked, available, waitlist int) error {
	const q = `UPDATE class_occurrences
	           SET booked_spots = ?, available_spots = ?, waitlist_count = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, booked, available, waitlist, id)
	return err
}

// UpdateCapacity rewrites max_capacity together with the recomputed
// available_spots.
func (r *OccurrenceRepo) UpdateCapacity(ctx context.Context, id uint64, maxCapacity, available int) error {
	const q = `UPDATE class_occurrences
	           SET max_capacity = ?, available_spots = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, maxCapacity, available, id)
	return err
}

// UpdateStudio re-points the occurrence at a different studio.  The caller
// owns the inventory cascade.
func (r *OccurrenceRepo) UpdateStudio(ctx context.Context, id, studioID uint64) error {
	const q = `UPDATE class_occurrences SET studio_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, studioID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOccurrenceNotFound
	}
	return nil
}

// UpdateStatus rewrites the lifecycle status for non-cancellation moves
// (in_progress, completed).  Cancellation goes through MarkCancelled so
// status and is_cancelled can never drift apart.
func (r *OccurrenceRepo) UpdateStatus(ctx context.Context, id uint64, status model.OccurrenceStatus) error {
	const q = `UPDATE class_occurrences SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, string(status), id)
	return err
}

// MarkCancelled flips both cancellation fields in one statement.  It is
// a no-op for an already-cancelled occurrence and reports whether this
// call performed the transition, so the cascade fires exactly once.
func (r *OccurrenceRepo) MarkCancelled(ctx context.Context, id uint64, reason string) (bool, error) {
	const q = `UPDATE class_occurrences
	           SET is_cancelled = 1, cancellation_reason = ?, status = 'cancelled', updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND is_cancelled = 0`
	res, err := r.db.ExecContext(ctx, q, reason, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
