package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulk inserts multiple seats in a single statement.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (studio_id, row_pos, col_pos, seat_number, is_active) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.StudioID, s.Row, s.Col, s.SeatNumber, s.IsActive)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListByStudio retrieves all seats of a studio ordered by row then column.
func (r *SeatRepo) ListByStudio(ctx context.Context, studioID uint64) ([]model.Seat, error) {
	const q = `SELECT id, studio_id, row_pos, col_pos, seat_number, is_active, created_at, updated_at
	           FROM seats
	           WHERE studio_id = ?
	           ORDER BY row_pos, col_pos`
	return r.list(ctx, q, studioID)
}

// ListActiveByStudio retrieves the active seats of a studio ordered by
// seat number, which reflects the studio's addressing traversal.
func (r *SeatRepo) ListActiveByStudio(ctx context.Context, studioID uint64) ([]model.Seat, error) {
	const q = `SELECT id, studio_id, row_pos, col_pos, seat_number, is_active, created_at, updated_at
	           FROM seats
	           WHERE studio_id = ? AND is_active = 1
	           ORDER BY seat_number`
	return r.list(ctx, q, studioID)
}

func (r *SeatRepo) list(ctx context.Context, q string, studioID uint64) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx, q, studioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(
			&s.ID, &s.StudioID, &s.Row, &s.Col, &s.SeatNumber,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, studio_id, row_pos, col_pos, seat_number, is_active, created_at, updated_at
	           FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.StudioID, &s.Row, &s.Col, &s.SeatNumber, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// HasAssignmentHistory reports whether any assignment row, of any status,
// ever referenced this seat.  Seats with history may only be deactivated.
func (r *SeatRepo) HasAssignmentHistory(ctx context.Context, seatID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM seat_assignments WHERE seat_id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, seatID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateNumber rewrites a seat's sequence number during renumbering.
func (r *SeatRepo) UpdateNumber(ctx context.Context, id uint64, seatNumber int) error {
	const q = `UPDATE seats SET seat_number = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, seatNumber, id)
	return err
}

// Deactivate soft-removes a seat that has assignment history.
func (r *SeatRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE seats SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}

// Delete hard-removes a seat.  Callers must check HasAssignmentHistory
// first; the engine refuses deletion for seats with history.
func (r *SeatRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM seats WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}
