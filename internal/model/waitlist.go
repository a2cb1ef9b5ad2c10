package model

import "time"

// WaitlistStatus enumerates the states of a waitlist entry.
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistNotified  WaitlistStatus = "notified"
	WaitlistConfirmed WaitlistStatus = "confirmed"
	WaitlistExpired   WaitlistStatus = "expired"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// NotifyResponseWindow is how long a notified user has to act on a freed
// spot.  Fixed policy.
const NotifyResponseWindow = 2 * time.Hour

// WaitlistEntry is an ordered queue position for a user wanting a spot on
// a full occurrence.  It is deliberately decoupled from SeatAssignment: an
// entry never holds a seat; only a later successful reserve call does.
//
// Fields:
//  ID           – primary key identifier.
//  OccurrenceID – occurrence the user is queueing for.
//  UserID       – queueing user.
//  PackageID    – optional package/credit reference.
//  Status       – waiting | notified | confirmed | expired | cancelled.
//  JoinedAt     – queue ordering key (lowest is head).
//  NotifiedAt   – when the user was told a spot freed up.
//  ExpiresAt    – end of the response window.
type WaitlistEntry struct {
	ID           uint64         // waitlist_entries.id
	OccurrenceID uint64         // waitlist_entries.occurrence_id
	UserID       uint64         // waitlist_entries.user_id
	PackageID    *uint64        // waitlist_entries.package_id (nullable)
	Status       WaitlistStatus // waitlist_entries.status
	JoinedAt     time.Time      // waitlist_entries.joined_at
	NotifiedAt   *time.Time     // waitlist_entries.notified_at (nullable)
	ExpiresAt    *time.Time     // waitlist_entries.expires_at (nullable)
}

// Notify moves a waiting entry to notified and opens the fixed response
// window.
func (w *WaitlistEntry) Notify(now time.Time) bool {
	if w.Status != WaitlistWaiting {
		return false
	}
	notifiedAt := now
	expiresAt := now.Add(NotifyResponseWindow)
	w.NotifiedAt = &notifiedAt
	w.ExpiresAt = &expiresAt
	w.Status = WaitlistNotified
	return true
}

// ConvertToBooking records that the user completed a booking using the
// opened slot.
func (w *WaitlistEntry) ConvertToBooking() bool {
	if w.Status != WaitlistNotified {
		return false
	}
	w.Status = WaitlistConfirmed
	return true
}

// Cancel moves the entry to its cancelled terminal state.  Terminal
// entries stay put.
func (w *WaitlistEntry) Cancel() bool {
	switch w.Status {
	case WaitlistExpired, WaitlistCancelled, WaitlistConfirmed:
		return false
	}
	w.Status = WaitlistCancelled
	return true
}

// Expire moves a notified entry whose window lapsed to expired.
func (w *WaitlistEntry) Expire() bool {
	if w.Status != WaitlistNotified {
		return false
	}
	w.Status = WaitlistExpired
	return true
}

// IsExpired reports whether the response window has lapsed without the
// entry having been moved to a terminal state yet.
func (w *WaitlistEntry) IsExpired(now time.Time) bool {
	return w.Status == WaitlistNotified && w.ExpiresAt != nil && !w.ExpiresAt.After(now)
}
