package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fitgrid/studio-reservation/internal/model"
)

// StudioRepo provides methods to work with studios in the database.
type StudioRepo struct {
	db *sql.DB
}

// NewStudioRepo constructs a StudioRepo with the given DB handle.
func NewStudioRepo(db *sql.DB) *StudioRepo {
	return &StudioRepo{db: db}
}

// Create inserts a studio record.  On success the studio's ID is populated.
func (r *StudioRepo) Create(ctx context.Context, s *model.Studio) error {
	const q = `INSERT INTO studios (name, grid_rows, grid_cols, capacity_per_seat, addressing, is_active)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.GridRows, s.GridCols, s.CapacityPerSeat, string(s.Addressing), s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a studio by its id.
func (r *StudioRepo) GetByID(ctx context.Context, id uint64) (*model.Studio, error) {
	const q = `SELECT id, name, grid_rows, grid_cols, capacity_per_seat, addressing, is_active, created_at, updated_at
	           FROM studios WHERE id = ?`
	var s model.Studio
	var addressing string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Name, &s.GridRows, &s.GridCols, &s.CapacityPerSeat,
		&addressing, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudioNotFound
		}
		return nil, err
	}
	s.Addressing = model.Addressing(addressing)
	return &s, nil
}

// Update persists grid configuration changes for a studio.
func (r *StudioRepo) Update(ctx context.Context, s *model.Studio) error {
	const q = `UPDATE studios
	           SET name = ?, grid_rows = ?, grid_cols = ?, capacity_per_seat = ?, addressing = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.GridRows, s.GridCols, s.CapacityPerSeat, string(s.Addressing), s.IsActive, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStudioNotFound
	}
	return nil
}
