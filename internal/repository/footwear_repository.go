package repository

import (
	"context"
	"database/sql"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// FootwearRepo provides the slice of footwear-loan data access this
// engine owns: loading the cancellable reservations of an occurrence and
// transitioning them to canceled during the cancellation cascade.  The
// loan subsystem itself lives elsewhere.
type FootwearRepo struct {
	db *sql.DB
}

// NewFootwearRepo returns a new FootwearRepo bound to the given database.
func NewFootwearRepo(db *sql.DB) *FootwearRepo { return &FootwearRepo{db: db} }

// ListActionableByOccurrence loads every reservation of an occurrence in
// state pending or confirmed, ordered by size so cascade reporting groups
// naturally.  Already-canceled rows are left untouched.
func (r *FootwearRepo) ListActionableByOccurrence(ctx context.Context, occurrenceID uint64) ([]model.FootwearReservation, error) {
	const q = `SELECT id, occurrence_id, user_id, size, status, created_at, updated_at
	           FROM footwear_reservations
	           WHERE occurrence_id = ? AND status IN ('pending', 'confirmed')
	           ORDER BY size, id`
	rows, err := r.db.QueryContext(ctx, q, occurrenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.FootwearReservation
	for rows.Next() {
		var f model.FootwearReservation
		var status string
		if err := rows.Scan(&f.ID, &f.OccurrenceID, &f.UserID, &f.Size, &status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		f.Status = model.FootwearStatus(status)
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel transitions one reservation to canceled.  The status guard keeps
// the operation idempotent; a row canceled by an earlier attempt reports
// false without error.
func (r *FootwearRepo) Cancel(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE footwear_reservations
	           SET status = 'canceled', updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND status IN ('pending', 'confirmed')`
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
