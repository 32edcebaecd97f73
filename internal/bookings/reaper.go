package bookings

import (
	"context"
	"sync"
	"time"

	"ticketd/internal/live"
	"ticketd/internal/notifications"
	"ticketd/pkg/logger"

	"github.com/google/uuid"
)

// Reaper settles lapsed holds. It runs two paths: a per-hold timer that fires
// right at the deadline, and a periodic sweep that catches everything the
// timers missed (process restarts, timer drift, holds created by other
// instances).
type Reaper struct {
	repo        Repository
	notifier    notifications.Service
	broadcaster live.Broadcaster
	invalidator AvailabilityInvalidator
	log         *logger.Logger

	interval  time.Duration
	batchSize int

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer

	stopCh  chan struct{}
	stopped chan struct{}
	startMu sync.Mutex
	running bool
}

func NewReaper(
	repo Repository,
	notifier notifications.Service,
	broadcaster live.Broadcaster,
	invalidator AvailabilityInvalidator,
	interval time.Duration,
	batchSize int,
	log *logger.Logger,
) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Reaper{
		repo:        repo,
		notifier:    notifier,
		broadcaster: broadcaster,
		invalidator: invalidator,
		log:         log,
		interval:    interval,
		batchSize:   batchSize,
		timers:      make(map[uuid.UUID]*time.Timer),
		stopCh:      make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Start launches the periodic sweep.
func (r *Reaper) Start() {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if r.running {
		return
	}
	r.running = true

	go func() {
		defer close(r.stopped)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.log.Info("expiry reaper started", "interval", r.interval)

		for {
			select {
			case <-r.stopCh:
				r.log.Info("expiry reaper stopped")
				return
			case <-ticker.C:
				r.Sweep(context.Background())
			}
		}
	}()
}

// Stop halts the sweep loop and cancels pending per-hold timers.
func (r *Reaper) Stop() {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if !r.running {
		return
	}
	r.running = false

	close(r.stopCh)
	<-r.stopped

	r.mu.Lock()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.mu.Unlock()
}

// ScheduleExpiry arms a timer to reap the booking right when its hold lapses.
// The sweep remains the backstop if the timer never fires.
func (r *Reaper) ScheduleExpiry(bookingID uuid.UUID, expiresAt time.Time) {
	delay := time.Until(expiresAt)
	if delay < 0 {
		delay = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.timers[bookingID]; ok {
		existing.Stop()
	}
	r.timers[bookingID] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, bookingID)
		r.mu.Unlock()

		r.reap(context.Background(), bookingID)
	})
}

// Sweep settles one batch of lapsed holds. Exposed for tests and for manual
// runs; Start calls it on the ticker.
func (r *Reaper) Sweep(ctx context.Context) {
	ids, err := r.repo.ListExpiredHolds(ctx, time.Now(), r.batchSize)
	if err != nil {
		r.log.ErrorWithContext(ctx, "expiry sweep failed to list holds", err, nil)
		return
	}

	for _, id := range ids {
		r.reap(ctx, id)
	}
}

func (r *Reaper) reap(ctx context.Context, bookingID uuid.UUID) {
	expired, err := r.repo.ExpireBooking(ctx, bookingID)
	if err != nil {
		r.log.ErrorWithContext(ctx, "failed to expire booking", err,
			map[string]interface{}{"booking_id": bookingID.String()})
		return
	}
	if expired == nil {
		// Confirmed, cancelled, or reaped by another instance.
		return
	}

	if r.invalidator != nil {
		r.invalidator.InvalidateAvailability(ctx, expired.EventID)
	}
	if r.broadcaster != nil {
		_ = r.broadcaster.Broadcast(ctx, live.Update{
			EventID: expired.EventID.String(),
			Kind:    "released",
			Units:   expired.TotalUnits,
		})
	}
	if r.notifier != nil {
		r.notifier.SendBookingExpired(ctx, expired.UserID.String(), expired.BookingRef, expired.EventID.String())
	}

	r.log.LogBookingExpired(ctx, expired.ID.String(), expired.TotalUnits)
}
