package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"held to confirmed", StatusHeld, StatusConfirmed, true},
		{"held to cancelled", StatusHeld, StatusCancelled, true},
		{"held to expired", StatusHeld, StatusExpired, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"confirmed to expired", StatusConfirmed, StatusExpired, false},
		{"confirmed to held", StatusConfirmed, StatusHeld, false},
		{"cancelled to anything", StatusCancelled, StatusHeld, false},
		{"cancelled to confirmed", StatusCancelled, StatusConfirmed, false},
		{"expired to confirmed", StatusExpired, StatusConfirmed, false},
		{"expired to cancelled", StatusExpired, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusHeld.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}

func TestStatusCanBeCancelled(t *testing.T) {
	assert.True(t, StatusHeld.CanBeCancelled())
	assert.True(t, StatusConfirmed.CanBeCancelled())
	assert.False(t, StatusCancelled.CanBeCancelled())
	assert.False(t, StatusExpired.CanBeCancelled())
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusHeld.IsValid())
	assert.True(t, StatusExpired.IsValid())
	assert.False(t, Status("PENDING").IsValid())
}
