package engine

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitgrid/studio-reservation/internal/model"
	"github.com/fitgrid/studio-reservation/internal/queue"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEngineMock(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	eng := New(db, 15*time.Minute)
	eng.now = func() time.Time { return testNow }
	return eng, mock
}

var occurrenceColumns = []string{
	"id", "class_id", "instructor_id", "studio_id", "scheduled_date", "start_time", "end_time",
	"max_capacity", "booked_spots", "available_spots", "waitlist_count",
	"booking_opens_at", "booking_closes_at", "cancellation_deadline",
	"is_cancelled", "cancellation_reason", "status", "created_at", "updated_at",
}

func occurrenceRow(cancelled bool) *sqlmock.Rows {
	var reason interface{}
	status := "scheduled"
	if cancelled {
		reason = "flood"
		status = "cancelled"
	}
	return sqlmock.NewRows(occurrenceColumns).AddRow(
		1, 10, 20, 3, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), "18:30:00", "19:30:00",
		20, 2, 18, 0,
		nil, nil, nil,
		cancelled, reason, status, testNow, testNow,
	)
}

func expectGetOccurrence(mock sqlmock.Sqlmock, cancelled bool) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_occurrences WHERE id = ?")).
		WithArgs(uint64(1)).
		WillReturnRows(occurrenceRow(cancelled))
}

func TestCancelOccurrenceCascades(t *testing.T) {
	eng, mock := newEngineMock(t)

	var published *queue.OccurrenceCancelledEvent
	eng.SetPublisher(func(ctx context.Context, ev queue.OccurrenceCancelledEvent) {
		published = &ev
	})

	expectGetOccurrence(mock, false)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_occurrences")).
		WithArgs("flood", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	footwearRows := sqlmock.NewRows([]string{"id", "occurrence_id", "user_id", "size", "status", "created_at", "updated_at"}).
		AddRow(100, 1, 7, "38", "pending", testNow, testNow).
		AddRow(101, 1, 8, "38", "confirmed", testNow, testNow).
		AddRow(102, 1, 9, "40", "pending", testNow, testNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM footwear_reservations")).
		WithArgs(uint64(1)).
		WillReturnRows(footwearRows)
	for _, id := range []uint64{100, 101, 102} {
		mock.ExpectExec(regexp.QuoteMeta("UPDATE footwear_reservations")).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	report, err := eng.CancelOccurrence(context.Background(), 1, "flood")
	require.NoError(t, err)
	assert.False(t, report.AlreadyCancelled)
	assert.Equal(t, 3, report.TotalCancelled)
	assert.Equal(t, map[string]int{"38": 2, "40": 1}, report.FootwearCancelled)

	require.NotNil(t, published, "cancellation must publish an event")
	assert.Equal(t, uint64(1), published.OccurrenceID)
	assert.Equal(t, uint64(3), published.StudioID)
	assert.Equal(t, "flood", published.Reason)
	assert.Equal(t, 3, published.TotalCancelled)
	assert.NotEmpty(t, published.EventID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOccurrenceIdempotent(t *testing.T) {
	eng, mock := newEngineMock(t)

	called := false
	eng.SetPublisher(func(ctx context.Context, ev queue.OccurrenceCancelledEvent) { called = true })

	expectGetOccurrence(mock, true)

	report, err := eng.CancelOccurrence(context.Background(), 1, "again")
	require.NoError(t, err)
	assert.True(t, report.AlreadyCancelled)
	assert.Zero(t, report.TotalCancelled)
	assert.False(t, called, "repeat cancel must not publish or cascade")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelCascadeSkipsFailedItems(t *testing.T) {
	eng, mock := newEngineMock(t)
	eng.SetPublisher(func(ctx context.Context, ev queue.OccurrenceCancelledEvent) {})

	expectGetOccurrence(mock, false)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_occurrences")).
		WithArgs("flood", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	footwearRows := sqlmock.NewRows([]string{"id", "occurrence_id", "user_id", "size", "status", "created_at", "updated_at"}).
		AddRow(100, 1, 7, "38", "pending", testNow, testNow).
		AddRow(101, 1, 8, "40", "pending", testNow, testNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM footwear_reservations")).
		WithArgs(uint64(1)).
		WillReturnRows(footwearRows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE footwear_reservations")).
		WithArgs(uint64(100)).
		WillReturnError(assert.AnError)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE footwear_reservations")).
		WithArgs(uint64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	report, err := eng.CancelOccurrence(context.Background(), 1, "flood")
	require.NoError(t, err, "one failing item must not fail the cascade")
	assert.Equal(t, 1, report.TotalCancelled)
	assert.Equal(t, map[string]int{"40": 1}, report.FootwearCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatRefusesCancelledOccurrence(t *testing.T) {
	eng, mock := newEngineMock(t)
	expectGetOccurrence(mock, true)

	_, err := eng.ReserveSeat(context.Background(), 1, 2, 42)
	assert.ErrorIs(t, err, ErrNotBookable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRefusesUncancel(t *testing.T) {
	eng, mock := newEngineMock(t)
	expectGetOccurrence(mock, true)

	status := model.OccurrenceScheduled
	_, err := eng.ApplyOccurrenceUpdate(context.Background(), 1, OccurrenceUpdate{Status: &status})
	assert.ErrorIs(t, err, ErrOccurrenceCancelled)
	assert.NoError(t, mock.ExpectationsWereMet(), "no status write may reach a cancelled occurrence")
}

var waitlistColumns = []string{
	"id", "occurrence_id", "user_id", "package_id", "status", "joined_at", "notified_at", "expires_at",
}

func TestNotifyNextSkipsExpiredHead(t *testing.T) {
	eng, mock := newEngineMock(t)

	lapsed := testNow.Add(-time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta("FROM waitlist_entries")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(waitlistColumns).
			AddRow(5, 1, 7, nil, "notified", testNow.Add(-3*time.Hour), testNow.Add(-2*time.Hour), lapsed))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE waitlist_entries SET status = ? WHERE")).
		WithArgs("expired", uint64(5), "notified").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM waitlist_entries")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(waitlistColumns).
			AddRow(6, 1, 8, nil, "waiting", testNow.Add(-time.Hour), nil, nil))
	mock.ExpectExec(regexp.QuoteMeta("notified_at = ?")).
		WithArgs("2025-06-01 12:00:00", "2025-06-01 14:00:00", uint64(6)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, eng.NotifyNext(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifyNextKeepsLiveHead(t *testing.T) {
	eng, mock := newEngineMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM waitlist_entries")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(waitlistColumns).
			AddRow(5, 1, 7, nil, "notified", testNow.Add(-time.Hour), testNow, testNow.Add(time.Hour)))

	require.NoError(t, eng.NotifyNext(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet(), "a head inside its window keeps the offer")
}

func TestBlockSeatTransitions(t *testing.T) {
	eng, mock := newEngineMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_assignments")).
		WithArgs("blocked", uint64(9), "available").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, eng.BlockSeat(context.Background(), 9))

	assignmentColumns := []string{
		"id", "occurrence_id", "seat_id", "holder_id", "status",
		"reserved_at", "expires_at", "code", "created_at", "updated_at",
	}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_assignments")).
		WithArgs("blocked", uint64(9), "available").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_assignments WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(assignmentColumns).
			AddRow(9, 1, 501, 42, "occupied", testNow, nil, "1-501-1-abcd1234", testNow, testNow))
	assert.ErrorIs(t, eng.BlockSeat(context.Background(), 9), ErrSeatUnavailable)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_assignments")).
		WithArgs("available", uint64(9), "blocked").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, eng.UnblockSeat(context.Background(), 9))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegenerateInventoryReportsDiscarded(t *testing.T) {
	eng, mock := newEngineMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT studio_id FROM class_occurrences WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"studio_id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM seat_assignments")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_assignments WHERE occurrence_id = ?")).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 12))

	seatRows := sqlmock.NewRows([]string{"id", "studio_id", "row_pos", "col_pos", "seat_number", "is_active", "created_at", "updated_at"}).
		AddRow(501, 3, 1, 1, 1, true, testNow, testNow).
		AddRow(502, 3, 1, 2, 2, true, testNow, testNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM seats")).
		WithArgs(uint64(3)).
		WillReturnRows(seatRows)

	for range 2 {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_assignments")).
			WillReturnResult(sqlmock.NewResult(900, 1))
	}
	mock.ExpectCommit()

	rebuilt, discarded, err := eng.RegenerateInventory(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, rebuilt)
	assert.Equal(t, int64(2), discarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
