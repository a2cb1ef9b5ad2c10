package model

import "time"

// AssignmentStatus enumerates the states a seat-inventory row can be in for
// a single class occurrence.
type AssignmentStatus string

const (
	AssignmentAvailable AssignmentStatus = "available"
	AssignmentReserved  AssignmentStatus = "reserved"
	AssignmentOccupied  AssignmentStatus = "occupied"
	AssignmentBlocked   AssignmentStatus = "blocked"
)

// DefaultHoldTTL is how long a reservation hold remains valid when the
// caller does not supply a TTL.
const DefaultHoldTTL = 15 * time.Minute

// SeatAssignment is the per-occurrence, per-seat inventory row.  Rows are
// created in bulk when an occurrence's inventory is built and deleted en
// masse only when the occurrence's studio changes or the occurrence itself
// is removed.  At most one holder may be attached to a row at a time;
// ExpiresAt is meaningful only while the row is reserved.
//
// Fields:
//  ID           – primary key identifier.
//  OccurrenceID – occurrence this inventory row belongs to.
//  SeatID       – physical seat backing the row.
//  HolderID     – reserving user (nil when the row is not held).
//  Status       – available | reserved | occupied | blocked.
//  ReservedAt   – when the current hold was placed (nil otherwise).
//  ExpiresAt    – when the current hold lapses (nil otherwise).
//  Code         – unique row code used by external collaborators.
type SeatAssignment struct {
	ID           uint64           // seat_assignments.id
	OccurrenceID uint64           // seat_assignments.occurrence_id
	SeatID       uint64           // seat_assignments.seat_id
	HolderID     *uint64          // seat_assignments.holder_id (nullable)
	Status       AssignmentStatus // seat_assignments.status
	ReservedAt   *time.Time       // seat_assignments.reserved_at (nullable)
	ExpiresAt    *time.Time       // seat_assignments.expires_at (nullable)
	Code         string           // seat_assignments.code
	CreatedAt    time.Time        // seat_assignments.created_at
	UpdatedAt    time.Time        // seat_assignments.updated_at
}

// IsExpired reports whether the row holds a lapsed reservation.  Only
// reserved rows can expire; occupied and blocked rows never do.
func (a *SeatAssignment) IsExpired(now time.Time) bool {
	return a.Status == AssignmentReserved && a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// EffectiveStatus is the status every read and write path must consult.
// A reserved row whose hold has lapsed counts as available even before a
// sweep has released it.
func (a *SeatAssignment) EffectiveStatus(now time.Time) AssignmentStatus {
	if a.IsExpired(now) {
		return AssignmentAvailable
	}
	return a.Status
}

// Reserve places a hold for holderID.  It succeeds only when the row is
// effectively available, which includes a lapsed reservation (the expired
// hold is displaced in the same step).  A non-positive ttl falls back to
// DefaultHoldTTL.  Returns false without mutating the row when the row is
// occupied, blocked or validly reserved.
func (a *SeatAssignment) Reserve(holderID uint64, ttl time.Duration, now time.Time) bool {
	if a.EffectiveStatus(now) != AssignmentAvailable {
		return false
	}
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	reservedAt := now
	expiresAt := now.Add(ttl)
	a.HolderID = &holderID
	a.Status = AssignmentReserved
	a.ReservedAt = &reservedAt
	a.ExpiresAt = &expiresAt
	return true
}

// Confirm promotes a live hold to occupied and clears the expiry.  A
// lapsed hold cannot be confirmed; it must be re-reserved first.
func (a *SeatAssignment) Confirm(now time.Time) bool {
	if a.Status != AssignmentReserved || a.IsExpired(now) {
		return false
	}
	a.Status = AssignmentOccupied
	a.ExpiresAt = nil
	return true
}

// Release returns the row to available from any state and clears the
// holder.  It is idempotent; releasing an already-available row is a no-op
// that still reports success to the caller.
func (a *SeatAssignment) Release() {
	a.HolderID = nil
	a.ReservedAt = nil
	a.ExpiresAt = nil
	a.Status = AssignmentAvailable
}

// Block takes an available row out of service for maintenance.  Held or
// occupied rows must be released first.
func (a *SeatAssignment) Block() bool {
	if a.Status != AssignmentAvailable {
		return false
	}
	a.Status = AssignmentBlocked
	return true
}

// Unblock returns a blocked row to available.
func (a *SeatAssignment) Unblock() bool {
	if a.Status != AssignmentBlocked {
		return false
	}
	a.Status = AssignmentAvailable
	return true
}
