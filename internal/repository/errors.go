// Package repository defines raw-SQL data access for the scheduling and
// seat-reservation engine.  Sentinel errors declared here let handlers
// distinguish failure classes without inspecting driver errors: not-found
// lookups map to 404, ErrSeatInUse maps to 409 (a seat with assignment
// history may be deactivated but never deleted).
package repository

import "errors"

// ErrStudioNotFound is returned when a studio lookup yields no rows.
var ErrStudioNotFound = errors.New("studio not found")

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrOccurrenceNotFound is returned when an occurrence lookup yields no rows.
var ErrOccurrenceNotFound = errors.New("occurrence not found")

// ErrAssignmentNotFound is returned when a seat-assignment lookup yields no rows.
var ErrAssignmentNotFound = errors.New("seat assignment not found")

// ErrSeatInUse is returned when deleting a seat that has historical
// assignment rows.  Such seats must be deactivated instead.
var ErrSeatInUse = errors.New("seat has assignment history")
