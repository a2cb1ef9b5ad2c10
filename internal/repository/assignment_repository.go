package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// AssignmentRepo provides data access to the seat_assignments table, the
// per-occurrence seat inventory.  The reservation state machine's
// concurrency-control point lives here: Reserve and Confirm are single
// conditional UPDATE statements, so two concurrent calls on the same row
// can never both succeed regardless of how many processes run the engine.
// All expiry comparisons are performed in UTC by the database itself.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo returns a new AssignmentRepo bound to the provided database.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

// randomSuffix generates n random bytes as a hex string for assignment
// codes.  Collision avoidance, not a security token.
func randomSuffix(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewCode builds the unique code for an inventory row from the occurrence
// id, seat id, the current unix timestamp and a random suffix.
func NewCode(occurrenceID, seatID uint64) (string, error) {
	suffix, err := randomSuffix(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d-%d-%s", occurrenceID, seatID, time.Now().UTC().Unix(), suffix), nil
}

// Create inserts a single inventory row.  Inventory building is
// best-effort per seat, so the engine calls this in a loop and logs and
// skips individual failures rather than batching all rows into one
// statement.
func (r *AssignmentRepo) Create(ctx context.Context, a *model.SeatAssignment) error {
	return r.create(ctx, r.db, a)
}

// CreateTx is Create within an existing transaction, used by the
// regeneration path while it holds the occurrence lock.
func (r *AssignmentRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.SeatAssignment) error {
	return r.create(ctx, tx, a)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *AssignmentRepo) create(ctx context.Context, ex execer, a *model.SeatAssignment) error {
	const q = `INSERT INTO seat_assignments (occurrence_id, seat_id, status, code)
	           VALUES (?, ?, ?, ?)`
	res, err := ex.ExecContext(ctx, q, a.OccurrenceID, a.SeatID, string(a.Status), a.Code)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// Reserve atomically places a hold on a row.  The conditional WHERE clause
// is the whole point: the update succeeds only when the row is available,
// or reserved with a lapsed hold (expire-then-reserve in one statement).
// Returns false when another holder won the row; that is a denial, not an
// error.
func (r *AssignmentRepo) Reserve(ctx context.Context, id, holderID uint64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = model.DefaultHoldTTL
	}
	const q = `UPDATE seat_assignments
	           SET holder_id = ?, status = 'reserved',
	               reserved_at = UTC_TIMESTAMP(),
	               expires_at = DATE_ADD(UTC_TIMESTAMP(), INTERVAL ? SECOND),
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?
	             AND (status = 'available'
	                  OR (status = 'reserved' AND expires_at <= UTC_TIMESTAMP()))`
	res, err := r.db.ExecContext(ctx, q, holderID, int64(ttl.Seconds()), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Confirm promotes a live hold to occupied and clears the expiry.  A row
// whose hold already lapsed is not confirmable.
func (r *AssignmentRepo) Confirm(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE seat_assignments
	           SET status = 'occupied', expires_at = NULL, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = 'reserved' AND expires_at > UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Release returns a row to available from any state, clearing the holder
// and hold timestamps.  Idempotent.
func (r *AssignmentRepo) Release(ctx context.Context, id uint64) error {
	const q = `UPDATE seat_assignments
	           SET holder_id = NULL, status = 'available', reserved_at = NULL, expires_at = NULL,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// SetStatusFromTo moves a row between two states only when it currently
// holds the expected one.  Used for the administrative available<->blocked
// transitions.
func (r *AssignmentRepo) SetStatusFromTo(ctx context.Context, id uint64, from, to model.AssignmentStatus) (bool, error) {
	const q = `UPDATE seat_assignments
	           SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status = ?`
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

// ReleaseExpired sweeps one occurrence's lapsed holds back to available
// and returns how many rows were released.
func (r *AssignmentRepo) ReleaseExpired(ctx context.Context, occurrenceID uint64) (int64, error) {
	const q = `UPDATE seat_assignments
	           SET holder_id = NULL, status = 'available', reserved_at = NULL, expires_at = NULL,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE occurrence_id = ? AND status = 'reserved' AND expires_at <= UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q, occurrenceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseAllExpired is the global variant used by the background sweep.
// Correctness never depends on it running: Reserve and Confirm treat
// lapsed holds correctly on their own.
func (r *AssignmentRepo) ReleaseAllExpired(ctx context.Context) (int64, error) {
	const q = `UPDATE seat_assignments
	           SET holder_id = NULL, status = 'available', reserved_at = NULL, expires_at = NULL,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE status = 'reserved' AND expires_at <= UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetByID retrieves an assignment row by its id.
func (r *AssignmentRepo) GetByID(ctx context.Context, id uint64) (*model.SeatAssignment, error) {
	const q = `SELECT id, occurrence_id, seat_id, holder_id, status, reserved_at, expires_at, code, created_at, updated_at
	           FROM seat_assignments WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByOccurrenceAndSeat retrieves the inventory row for one seat of one
// occurrence.
func (r *AssignmentRepo) GetByOccurrenceAndSeat(ctx context.Context, occurrenceID, seatID uint64) (*model.SeatAssignment, error) {
	const q = `SELECT id, occurrence_id, seat_id, holder_id, status, reserved_at, expires_at, code, created_at, updated_at
	           FROM seat_assignments WHERE occurrence_id = ? AND seat_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, occurrenceID, seatID))
}

func (r *AssignmentRepo) scanOne(row *sql.Row) (*model.SeatAssignment, error) {
	var a model.SeatAssignment
	var holder sql.NullInt64
	var reservedAt, expiresAt sql.NullTime
	var status string
	err := row.Scan(
		&a.ID, &a.OccurrenceID, &a.SeatID, &holder, &status,
		&reservedAt, &expiresAt, &a.Code, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if holder.Valid {
		h := uint64(holder.Int64)
		a.HolderID = &h
	}
	if reservedAt.Valid {
		t := reservedAt.Time
		a.ReservedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		a.ExpiresAt = &t
	}
	a.Status = model.AssignmentStatus(status)
	return &a, nil
}

// ListByOccurrence retrieves all inventory rows of an occurrence ordered
// by seat id.  Callers evaluate effective status themselves; rows are
// returned as stored.
func (r *AssignmentRepo) ListByOccurrence(ctx context.Context, occurrenceID uint64) ([]model.SeatAssignment, error) {
	const q = `SELECT id, occurrence_id, seat_id, holder_id, status, reserved_at, expires_at, code, created_at, updated_at
	           FROM seat_assignments
	           WHERE occurrence_id = ?
	           ORDER BY seat_id`
	rows, err := r.db.QueryContext(ctx, q, occurrenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SeatAssignment
	for rows.Next() {
		var a model.SeatAssignment
		var holder sql.NullInt64
		var reservedAt, expiresAt sql.NullTime
		var status string
		if err := rows.Scan(
			&a.ID, &a.OccurrenceID, &a.SeatID, &holder, &status,
			&reservedAt, &expiresAt, &a.Code, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if holder.Valid {
			h := uint64(holder.Int64)
			a.HolderID = &h
		}
		if reservedAt.Valid {
			t := reservedAt.Time
			a.ReservedAt = &t
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			a.ExpiresAt = &t
		}
		a.Status = model.AssignmentStatus(status)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountActiveTx counts occupied rows plus reserved rows whose hold is
// still live, within the provided transaction.  The regeneration path
// uses this to report how many in-flight reservations it is about to
// discard.
func (r *AssignmentRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, occurrenceID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM seat_assignments
	           WHERE occurrence_id = ?
	             AND (status = 'occupied'
	                  OR (status = 'reserved' AND expires_at > UTC_TIMESTAMP()))`
	var n int64
	if err := tx.QueryRowContext(ctx, q, occurrenceID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteByOccurrenceTx removes every inventory row of an occurrence
// within the provided transaction.  Destructive to reservations in
// flight; only the regeneration path, holding the occurrence lock, may
// call it.
func (r *AssignmentRepo) DeleteByOccurrenceTx(ctx context.Context, tx *sql.Tx, occurrenceID uint64) (int64, error) {
	const q = `DELETE FROM seat_assignments WHERE occurrence_id = ?`
	res, err := tx.ExecContext(ctx, q, occurrenceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountOccupied counts occupied rows for counter reconciliation.
func (r *AssignmentRepo) CountOccupied(ctx context.Context, occurrenceID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM seat_assignments WHERE occurrence_id = ? AND status = 'occupied'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, occurrenceID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
