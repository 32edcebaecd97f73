package bookings

import (
	"context"
	"testing"
	"time"

	"ticketd/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestReaper(repo Repository, notifier *fakeNotifier, broadcaster *fakeBroadcaster, invalidator *fakeInvalidator) *Reaper {
	return NewReaper(repo, notifier, broadcaster, invalidator, time.Minute, 100, logger.New())
}

func expiredBooking(eventID uuid.UUID) *Booking {
	return &Booking{
		ID:         uuid.New(),
		BookingRef: "TKT-20260830-XYZ234",
		UserID:     uuid.New(),
		EventID:    eventID,
		TotalUnits: 3,
		Status:     StatusExpired,
	}
}

func TestSweep_ReapsLapsedHolds(t *testing.T) {
	repo := new(MockRepository)
	notifier := &fakeNotifier{}
	broadcaster := &fakeBroadcaster{}
	invalidator := &fakeInvalidator{}
	reaper := newTestReaper(repo, notifier, broadcaster, invalidator)

	eventID := uuid.New()
	first := expiredBooking(eventID)
	second := expiredBooking(eventID)

	repo.On("ListExpiredHolds", mock.Anything, mock.Anything, 100).
		Return([]uuid.UUID{first.ID, second.ID}, nil)
	repo.On("ExpireBooking", mock.Anything, first.ID).Return(first, nil)
	repo.On("ExpireBooking", mock.Anything, second.ID).Return(second, nil)

	reaper.Sweep(context.Background())

	assert.Equal(t, 2, notifier.expirations)
	assert.Len(t, broadcaster.updates, 2)
	assert.Equal(t, "released", broadcaster.updates[0].Kind)
	assert.Equal(t, 3, broadcaster.updates[0].Units)
	assert.Len(t, invalidator.invalidated, 2)
	repo.AssertExpectations(t)
}

func TestSweep_SkipsSettledBookings(t *testing.T) {
	repo := new(MockRepository)
	notifier := &fakeNotifier{}
	broadcaster := &fakeBroadcaster{}
	invalidator := &fakeInvalidator{}
	reaper := newTestReaper(repo, notifier, broadcaster, invalidator)

	// Confirmed in the window between listing and locking: ExpireBooking
	// reports a no-op with a nil booking.
	settledID := uuid.New()
	repo.On("ListExpiredHolds", mock.Anything, mock.Anything, 100).
		Return([]uuid.UUID{settledID}, nil)
	repo.On("ExpireBooking", mock.Anything, settledID).Return(nil, nil)

	reaper.Sweep(context.Background())

	assert.Zero(t, notifier.expirations)
	assert.Empty(t, broadcaster.updates)
	assert.Empty(t, invalidator.invalidated)
}

func TestScheduleExpiry_FiresAtDeadline(t *testing.T) {
	repo := new(MockRepository)
	notifier := &fakeNotifier{}
	broadcaster := &fakeBroadcaster{}
	invalidator := &fakeInvalidator{}
	reaper := newTestReaper(repo, notifier, broadcaster, invalidator)

	booking := expiredBooking(uuid.New())
	repo.On("ExpireBooking", mock.Anything, booking.ID).Return(booking, nil)

	reaper.ScheduleExpiry(booking.ID, time.Now().Add(20*time.Millisecond))

	assert.Eventually(t, func() bool {
		return notifier.expiredCount() == 1
	}, time.Second, 10*time.Millisecond)
	repo.AssertExpectations(t)
}

func TestScheduleExpiry_ReplacesExistingTimer(t *testing.T) {
	repo := new(MockRepository)
	notifier := &fakeNotifier{}
	broadcaster := &fakeBroadcaster{}
	invalidator := &fakeInvalidator{}
	reaper := newTestReaper(repo, notifier, broadcaster, invalidator)

	booking := expiredBooking(uuid.New())
	repo.On("ExpireBooking", mock.Anything, booking.ID).Return(booking, nil)

	// First timer far in the future, then rescheduled to fire immediately.
	reaper.ScheduleExpiry(booking.ID, time.Now().Add(time.Hour))
	reaper.ScheduleExpiry(booking.ID, time.Now())

	assert.Eventually(t, func() bool {
		return notifier.expiredCount() == 1
	}, time.Second, 10*time.Millisecond)

	// Only one reap happened despite two schedules
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, notifier.expiredCount())
}

func TestStartStop(t *testing.T) {
	repo := new(MockRepository)
	reaper := newTestReaper(repo, &fakeNotifier{}, &fakeBroadcaster{}, &fakeInvalidator{})

	reaper.Start()
	reaper.Start() // second start is a no-op
	reaper.Stop()
	reaper.Stop() // second stop is a no-op
}
