package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func reservedRow(expiresIn time.Duration) *SeatAssignment {
	holder := uint64(7)
	reservedAt := now.Add(-time.Minute)
	expiresAt := now.Add(expiresIn)
	return &SeatAssignment{
		ID:           1,
		Status:       AssignmentReserved,
		HolderID:     &holder,
		ReservedAt:   &reservedAt,
		ExpiresAt:    &expiresAt,
	}
}

func TestEffectiveStatus(t *testing.T) {
	tests := []struct {
		name string
		row  *SeatAssignment
		want AssignmentStatus
	}{
		{"available stays available", &SeatAssignment{Status: AssignmentAvailable}, AssignmentAvailable},
		{"live hold stays reserved", reservedRow(10 * time.Minute), AssignmentReserved},
		{"lapsed hold reads as available", reservedRow(-time.Minute), AssignmentAvailable},
		{"hold expiring exactly now reads as available", reservedRow(0), AssignmentAvailable},
		{"occupied never expires", &SeatAssignment{Status: AssignmentOccupied}, AssignmentOccupied},
		{"blocked never expires", &SeatAssignment{Status: AssignmentBlocked}, AssignmentBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.row.EffectiveStatus(now))
		})
	}
}

func TestReserve(t *testing.T) {
	t.Run("available row takes the hold", func(t *testing.T) {
		a := &SeatAssignment{Status: AssignmentAvailable}
		require.True(t, a.Reserve(42, 15*time.Minute, now))
		assert.Equal(t, AssignmentReserved, a.Status)
		require.NotNil(t, a.HolderID)
		assert.Equal(t, uint64(42), *a.HolderID)
		assert.Equal(t, now.Add(15*time.Minute), *a.ExpiresAt)
	})

	t.Run("lapsed hold is displaced", func(t *testing.T) {
		a := reservedRow(-time.Minute)
		require.True(t, a.Reserve(42, 15*time.Minute, now))
		assert.Equal(t, uint64(42), *a.HolderID)
		assert.True(t, a.ExpiresAt.After(now))
	})

	t.Run("live hold is not displaced", func(t *testing.T) {
		a := reservedRow(10 * time.Minute)
		require.False(t, a.Reserve(42, 15*time.Minute, now))
		assert.Equal(t, uint64(7), *a.HolderID)
	})

	t.Run("occupied and blocked refuse", func(t *testing.T) {
		assert.False(t, (&SeatAssignment{Status: AssignmentOccupied}).Reserve(42, 0, now))
		assert.False(t, (&SeatAssignment{Status: AssignmentBlocked}).Reserve(42, 0, now))
	})

	t.Run("non-positive ttl falls back to default", func(t *testing.T) {
		a := &SeatAssignment{Status: AssignmentAvailable}
		require.True(t, a.Reserve(42, 0, now))
		assert.Equal(t, now.Add(DefaultHoldTTL), *a.ExpiresAt)
	})
}

func TestConfirm(t *testing.T) {
	t.Run("live hold confirms and clears expiry", func(t *testing.T) {
		a := reservedRow(10 * time.Minute)
		require.True(t, a.Confirm(now))
		assert.Equal(t, AssignmentOccupied, a.Status)
		assert.Nil(t, a.ExpiresAt)
	})

	t.Run("lapsed hold cannot confirm", func(t *testing.T) {
		a := reservedRow(-time.Minute)
		assert.False(t, a.Confirm(now))
		assert.Equal(t, AssignmentReserved, a.Status)
	})

	t.Run("available cannot confirm", func(t *testing.T) {
		assert.False(t, (&SeatAssignment{Status: AssignmentAvailable}).Confirm(now))
	})
}

func TestRelease(t *testing.T) {
	a := reservedRow(10 * time.Minute)
	a.Release()
	assert.Equal(t, AssignmentAvailable, a.Status)
	assert.Nil(t, a.HolderID)
	assert.Nil(t, a.ReservedAt)
	assert.Nil(t, a.ExpiresAt)

	// Idempotent.
	a.Release()
	assert.Equal(t, AssignmentAvailable, a.Status)
}

func TestBlockUnblock(t *testing.T) {
	a := &SeatAssignment{Status: AssignmentAvailable}
	require.True(t, a.Block())
	assert.Equal(t, AssignmentBlocked, a.Status)
	assert.False(t, a.Block())

	require.True(t, a.Unblock())
	assert.Equal(t, AssignmentAvailable, a.Status)

	held := reservedRow(10 * time.Minute)
	assert.False(t, held.Block())
}
