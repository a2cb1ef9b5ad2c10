package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOccurrence() *Occurrence {
	return &Occurrence{
		ID:            1,
		StudioID:      2,
		ScheduledDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:     "18:30:00",
		EndTime:       "19:30:00",
		MaxCapacity:   20,
		Status:        OccurrenceScheduled,
	}
}

func TestStartsAt(t *testing.T) {
	o := sampleOccurrence()
	assert.Equal(t, time.Date(2025, 6, 10, 18, 30, 0, 0, time.UTC), o.StartsAt())

	o.StartTime = "18:30"
	assert.Equal(t, time.Date(2025, 6, 10, 18, 30, 0, 0, time.UTC), o.StartsAt())

	o.StartTime = "bogus"
	assert.Equal(t, o.ScheduledDate, o.StartsAt())
}

func TestDeriveWindows(t *testing.T) {
	t.Run("fills missing windows from the start", func(t *testing.T) {
		o := sampleOccurrence()
		o.DeriveWindows()
		start := o.StartsAt()
		require.NotNil(t, o.BookingOpensAt)
		require.NotNil(t, o.BookingClosesAt)
		require.NotNil(t, o.CancellationDeadline)
		assert.Equal(t, start.Add(-7*24*time.Hour), *o.BookingOpensAt)
		assert.Equal(t, start.Add(-time.Hour), *o.BookingClosesAt)
		assert.Equal(t, start.Add(-3*24*time.Hour), *o.CancellationDeadline)
		assert.Equal(t, 20, o.AvailableSpots)
	})

	t.Run("supplied windows are preserved", func(t *testing.T) {
		o := sampleOccurrence()
		custom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		o.BookingOpensAt = &custom
		o.DeriveWindows()
		assert.Equal(t, custom, *o.BookingOpensAt)
		assert.NotNil(t, o.BookingClosesAt)
	})
}

func TestBookable(t *testing.T) {
	start := sampleOccurrence().StartsAt()
	tests := []struct {
		name   string
		mutate func(*Occurrence)
		at     time.Time
		want   bool
	}{
		{"open well before start", func(o *Occurrence) {}, start.Add(-24 * time.Hour), true},
		{"exactly at lead time boundary", func(o *Occurrence) {}, start.Add(-2 * time.Hour), true},
		{"inside minimum lead time", func(o *Occurrence) {}, start.Add(-time.Hour), false},
		{"after start", func(o *Occurrence) {}, start.Add(time.Minute), false},
		{"cancelled", func(o *Occurrence) { o.Cancel("flood") }, start.Add(-24 * time.Hour), false},
		{"full", func(o *Occurrence) { o.BookedSpots = 20; o.recomputeAvailable() }, start.Add(-24 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := sampleOccurrence()
			o.DeriveWindows()
			tt.mutate(o)
			assert.Equal(t, tt.want, o.Bookable(tt.at))
		})
	}
}

func TestBookAndCancelSpot(t *testing.T) {
	o := sampleOccurrence()
	o.DeriveWindows()
	at := o.StartsAt().Add(-24 * time.Hour)

	require.True(t, o.BookSpot(at))
	assert.Equal(t, 1, o.BookedSpots)
	assert.Equal(t, 19, o.AvailableSpots)

	o.CancelBooking()
	assert.Equal(t, 0, o.BookedSpots)
	assert.Equal(t, 20, o.AvailableSpots)

	// Floors at zero.
	o.CancelBooking()
	assert.Equal(t, 0, o.BookedSpots)
}

func TestCancelSyncsStatusAndFlag(t *testing.T) {
	o := sampleOccurrence()
	o.Cancel("instructor sick")
	assert.True(t, o.IsCancelled)
	assert.Equal(t, OccurrenceCancelled, o.Status)
	require.NotNil(t, o.CancellationReason)
	assert.Equal(t, "instructor sick", *o.CancellationReason)
}

func TestWaitlistCounters(t *testing.T) {
	o := sampleOccurrence()
	o.AddToWaitlist()
	o.AddToWaitlist()
	assert.Equal(t, 2, o.WaitlistCount)
	o.RemoveFromWaitlist()
	o.RemoveFromWaitlist()
	o.RemoveFromWaitlist()
	assert.Equal(t, 0, o.WaitlistCount)
}
