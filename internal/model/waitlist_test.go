package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitlistNotify(t *testing.T) {
	w := &WaitlistEntry{Status: WaitlistWaiting, JoinedAt: now}
	require.True(t, w.Notify(now))
	assert.Equal(t, WaitlistNotified, w.Status)
	require.NotNil(t, w.ExpiresAt)
	assert.Equal(t, now.Add(NotifyResponseWindow), *w.ExpiresAt)

	// Already notified entries keep their window.
	assert.False(t, w.Notify(now.Add(time.Minute)))
}

func TestWaitlistConvertToBooking(t *testing.T) {
	w := &WaitlistEntry{Status: WaitlistWaiting}
	assert.False(t, w.ConvertToBooking(), "waiting entry cannot convert without notification")

	require.True(t, w.Notify(now))
	require.True(t, w.ConvertToBooking())
	assert.Equal(t, WaitlistConfirmed, w.Status)
}

func TestWaitlistCancel(t *testing.T) {
	tests := []struct {
		name   string
		status WaitlistStatus
		want   bool
	}{
		{"waiting cancels", WaitlistWaiting, true},
		{"notified cancels", WaitlistNotified, true},
		{"confirmed is terminal", WaitlistConfirmed, false},
		{"expired is terminal", WaitlistExpired, false},
		{"cancelled is terminal", WaitlistCancelled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WaitlistEntry{Status: tt.status}
			assert.Equal(t, tt.want, w.Cancel())
		})
	}
}

func TestWaitlistExpire(t *testing.T) {
	w := &WaitlistEntry{Status: WaitlistWaiting}
	assert.False(t, w.Expire(), "only notified entries expire")

	require.True(t, w.Notify(now))
	assert.False(t, w.IsExpired(now.Add(time.Hour)))
	assert.True(t, w.IsExpired(now.Add(NotifyResponseWindow)))

	require.True(t, w.Expire())
	assert.Equal(t, WaitlistExpired, w.Status)
}
