package model

import (
	"strings"
	"time"
)

// OccurrenceStatus enumerates the lifecycle states of a class occurrence.
type OccurrenceStatus string

const (
	OccurrenceScheduled  OccurrenceStatus = "scheduled"
	OccurrenceInProgress OccurrenceStatus = "in_progress"
	OccurrenceCompleted  OccurrenceStatus = "completed"
	OccurrenceCancelled  OccurrenceStatus = "cancelled"
)

// Booking-window offsets relative to the scheduled start.  Applied at
// creation only when the corresponding timestamp was not supplied
// explicitly (bulk imports carry their own values, which are preserved
// verbatim).
const (
	BookingOpensOffset      = 7 * 24 * time.Hour
	BookingClosesOffset     = time.Hour
	CancellationDeadlineOff = 3 * 24 * time.Hour
	// MinLeadTime is the latest a spot may still be booked before start.
	MinLeadTime = 2 * time.Hour
)

// Occurrence is one scheduled instance of a class on a specific date and
// time.  The capacity counters are a cache of the assignment-row truth and
// are reconciled by the engine; AvailableSpots is always
// MaxCapacity-BookedSpots and never negative.  Status and IsCancelled are
// kept synchronized by the lifecycle, never by callers.
//
// Fields:
//  ID                   – primary key identifier.
//  ClassID              – class definition being held.
//  InstructorID         – instructor leading the occurrence.
//  StudioID             – room the occurrence takes place in.
//  ScheduledDate        – calendar date (UTC midnight).
//  StartTime / EndTime  – wall-clock times, "HH:MM:SS".
//  MaxCapacity          – bookable spots.
//  BookedSpots          – spots currently booked.
//  AvailableSpots       – MaxCapacity - BookedSpots.
//  WaitlistCount        – number of live waitlist entries.
//  BookingOpensAt       – start of the booking window.
//  BookingClosesAt      – end of the booking window.
//  CancellationDeadline – last moment a booking may be cancelled freely.
//  IsCancelled          – cancellation flag, synced with Status.
//  CancellationReason   – free-text reason (nil unless cancelled).
//  Status               – scheduled | in_progress | completed | cancelled.
type Occurrence struct {
	ID                   uint64           // class_occurrences.id
	ClassID              uint64           // class_occurrences.class_id
	InstructorID         uint64           // class_occurrences.instructor_id
	StudioID             uint64           // class_occurrences.studio_id
	ScheduledDate        time.Time        // class_occurrences.scheduled_date
	StartTime            string           // class_occurrences.start_time
	EndTime              string           // class_occurrences.end_time
	MaxCapacity          int              // class_occurrences.max_capacity
	BookedSpots          int              // class_occurrences.booked_spots
	AvailableSpots       int              // class_occurrences.available_spots
	WaitlistCount        int              // class_occurrences.waitlist_count
	BookingOpensAt       *time.Time       // class_occurrences.booking_opens_at
	BookingClosesAt      *time.Time       // class_occurrences.booking_closes_at
	CancellationDeadline *time.Time       // class_occurrences.cancellation_deadline
	IsCancelled          bool             // class_occurrences.is_cancelled
	CancellationReason   *string          // class_occurrences.cancellation_reason (nullable)
	Status               OccurrenceStatus // class_occurrences.status
	CreatedAt            time.Time        // class_occurrences.created_at
	UpdatedAt            time.Time        // class_occurrences.updated_at
}

// StartsAt combines the raw scheduled date and start time into a single
// UTC instant.  The raw components are used directly so that derived
// windows never reapply earlier formatting.
func (o *Occurrence) StartsAt() time.Time {
	clock := strings.TrimSpace(o.StartTime)
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		if t, err = time.Parse("15:04", clock); err != nil {
			return o.ScheduledDate
		}
	}
	y, m, d := o.ScheduledDate.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// DeriveWindows fills in the booking window and cancellation deadline from
// the scheduled start, touching only timestamps that were not supplied,
// and recomputes AvailableSpots.  Called exactly once, at creation.
func (o *Occurrence) DeriveWindows() {
	start := o.StartsAt()
	if o.BookingOpensAt == nil {
		t := start.Add(-BookingOpensOffset)
		o.BookingOpensAt = &t
	}
	if o.BookingClosesAt == nil {
		t := start.Add(-BookingClosesOffset)
		o.BookingClosesAt = &t
	}
	if o.CancellationDeadline == nil {
		t := start.Add(-CancellationDeadlineOff)
		o.CancellationDeadline = &t
	}
	o.recomputeAvailable()
}

func (o *Occurrence) recomputeAvailable() {
	o.AvailableSpots = o.MaxCapacity - o.BookedSpots
	if o.AvailableSpots < 0 {
		o.AvailableSpots = 0
	}
}

// Bookable reports whether a spot could be booked right now: the
// occurrence is not cancelled, has not started, has spots left, and at
// least MinLeadTime remains before the scheduled start.
func (o *Occurrence) Bookable(now time.Time) bool {
	if o.IsCancelled || o.Status == OccurrenceCancelled {
		return false
	}
	start := o.StartsAt()
	if !start.After(now) {
		return false
	}
	if o.AvailableSpots <= 0 {
		return false
	}
	return !now.After(start.Add(-MinLeadTime))
}

// BookSpot consumes one spot when Bookable, keeping the counter invariant.
func (o *Occurrence) BookSpot(now time.Time) bool {
	if !o.Bookable(now) {
		return false
	}
	o.BookedSpots++
	o.recomputeAvailable()
	return true
}

// CancelBooking returns one spot unconditionally.  It is the rollback
// inverse of BookSpot and never fails; BookedSpots floors at zero.
func (o *Occurrence) CancelBooking() {
	if o.BookedSpots > 0 {
		o.BookedSpots--
	}
	o.recomputeAvailable()
}

// AddToWaitlist increments the waitlist counter.
func (o *Occurrence) AddToWaitlist() {
	o.WaitlistCount++
}

// RemoveFromWaitlist decrements the waitlist counter, floored at zero.
func (o *Occurrence) RemoveFromWaitlist() {
	if o.WaitlistCount > 0 {
		o.WaitlistCount--
	}
}

// Cancel marks the occurrence cancelled.  This is the only operation
// allowed to set IsCancelled or a cancelled Status, so the two fields can
// never drift apart.  The dependent-reservation cascade is owned by the
// engine, which calls this first.
func (o *Occurrence) Cancel(reason string) {
	o.IsCancelled = true
	o.CancellationReason = &reason
	o.Status = OccurrenceCancelled
}
