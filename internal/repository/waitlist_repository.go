package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// WaitlistRepo provides data access to the waitlist_entries table.  Queue
// order is by joined_at ascending; an entry never holds a seat, it only
// marks a position.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// Create inserts a new entry.  On success the generated ID is populated.
func (r *WaitlistRepo) Create(ctx context.Context, w *model.WaitlistEntry) error {
	const q = `INSERT INTO waitlist_entries (occurrence_id, user_id, package_id, status, joined_at)
	           VALUES (?, ?, ?, ?, ?)`
	var pkg sql.NullInt64
	if w.PackageID != nil {
		pkg = sql.NullInt64{Int64: int64(*w.PackageID), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, q, w.OccurrenceID, w.UserID, pkg, string(w.Status),
		w.JoinedAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// Head returns the front of the queue for an occurrence: the entry with
// the lowest joined_at among {waiting, notified, confirmed}.  Returns
// (nil, nil) when the queue is empty.
func (r *WaitlistRepo) Head(ctx context.Context, occurrenceID uint64) (*model.WaitlistEntry, error) {
	const q = `SELECT id, occurrence_id, user_id, package_id, status, joined_at, notified_at, expires_at
	           FROM waitlist_entries
	           WHERE occurrence_id = ? AND status IN ('waiting', 'notified', 'confirmed')
	           ORDER BY joined_at
	           LIMIT 1`
	var w model.WaitlistEntry
	var pkg sql.NullInt64
	var notifiedAt, expiresAt sql.NullTime
	var status string
	err := r.db.QueryRowContext(ctx, q, occurrenceID).Scan(
		&w.ID, &w.OccurrenceID, &w.UserID, &pkg, &status, &w.JoinedAt, &notifiedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if pkg.Valid {
		p := uint64(pkg.Int64)
		w.PackageID = &p
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		w.NotifiedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		w.ExpiresAt = &t
	}
	w.Status = model.WaitlistStatus(status)
	return &w, nil
}

// MarkNotified opens the response window on a waiting entry.  The status
// guard makes concurrent notify attempts race-safe: only one wins.
func (r *WaitlistRepo) MarkNotified(ctx context.Context, id uint64, notifiedAt, expiresAt time.Time) (bool, error) {
	const q = `UPDATE waitlist_entries
	           SET status = 'notified', notified_at = ?, expires_at = ?
	           WHERE id = ? AND status = 'waiting'`
	res, err := r.db.ExecContext(ctx, q,
		notifiedAt.UTC().Format("2006-01-02 15:04:05"),
		expiresAt.UTC().Format("2006-01-02 15:04:05"), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetStatusFromTo moves an entry between states only when it currently
// holds the expected one (notified->confirmed, waiting->cancelled, ...).
func (r *WaitlistRepo) SetStatusFromTo(ctx context.Context, id uint64, from, to model.WaitlistStatus) (bool, error) {
	const q = `UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExpireOverdue moves every notified entry whose response window lapsed
// to expired and returns the number of entries moved.  Called by the
// background sweep.
func (r *WaitlistRepo) ExpireOverdue(ctx context.Context) (int64, error) {
	const q = `UPDATE waitlist_entries
	           SET status = 'expired'
	           WHERE status = 'notified' AND expires_at <= UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountActive counts the live entries of an occurrence for counter
// reconciliation.
func (r *WaitlistRepo) CountActive(ctx context.Context, occurrenceID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM waitlist_entries
	           WHERE occurrence_id = ? AND status IN ('waiting', 'notified', 'confirmed')`
	var n int
	if err := r.db.QueryRowContext(ctx, q, occurrenceID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
