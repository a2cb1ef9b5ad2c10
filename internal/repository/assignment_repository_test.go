package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitgrid/studio-reservation/internal/model"
)

func newAssignmentMock(t *testing.T) (*AssignmentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAssignmentRepo(db), mock
}

func TestReserveWinsRow(t *testing.T) {
	repo, mock := newAssignmentMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_assignments")).
		WithArgs(uint64(42), int64(900), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Reserve(context.Background(), 5, 42, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveLosesRow(t *testing.T) {
	repo, mock := newAssignmentMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_assignments")).
		WithArgs(uint64(42), int64(900), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Reserve(context.Background(), 5, 42, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "a held row must not be reserved again")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveDefaultsTTL(t *testing.T) {
	repo, mock := newAssignmentMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_assignments")).
		WithArgs(uint64(42), int64(model.DefaultHoldTTL.Seconds()), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Reserve(context.Background(), 5, 42, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRefusesLapsedHold(t *testing.T) {
	repo, mock := newAssignmentMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_assignments")).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Confirm(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseUnknownRow(t *testing.T) {
	repo, mock := newAssignmentMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_assignments")).
		WithArgs(uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Release(context.Background(), 77)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByOccurrenceAndSeatScansNullables(t *testing.T) {
	repo, mock := newAssignmentMock(t)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "occurrence_id", "seat_id", "holder_id", "status",
		"reserved_at", "expires_at", "code", "created_at", "updated_at",
	}).AddRow(3, 1, 2, nil, "available", nil, nil, "1-2-1717236000-ab12cd34", created, created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_assignments")).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(rows)

	a, err := repo.GetByOccurrenceAndSeat(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentAvailable, a.Status)
	assert.Nil(t, a.HolderID)
	assert.Nil(t, a.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewCodeShape(t *testing.T) {
	code, err := NewCode(12, 34)
	require.NoError(t, err)
	assert.Regexp(t, `^12-34-\d+-[0-9a-f]{8}$`, code)
}
