package cancellation

import (
	"context"
	"time"

	"ticketd/internal/bookings"
	"ticketd/internal/events"
	"ticketd/internal/shared/apperrors"

	"github.com/google/uuid"
)

type Service interface {
	// Quote reports whether the booking can be cancelled right now and for
	// how much, without changing anything.
	Quote(ctx context.Context, userID, bookingID uuid.UUID) (*Quote, error)

	// Cancel settles the booking under the policy and returns its final state.
	Cancel(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*bookings.BookingResponse, error)
}

// BookingService is the slice of the bookings feature cancellation drives.
type BookingService interface {
	GetOwnedBooking(ctx context.Context, userID, bookingID uuid.UUID) (*bookings.Booking, error)
	Cancel(ctx context.Context, userID, bookingID uuid.UUID, reason string, refundAmount float64) (*bookings.BookingResponse, error)
}

// EventService provides event start times for window math.
type EventService interface {
	GetEventByID(ctx context.Context, id uuid.UUID) (*events.EventResponse, error)
}

type service struct {
	bookingService BookingService
	eventService   EventService
	policy         Policy
}

func NewService(bookingService BookingService, eventService EventService, policy Policy) Service {
	return &service{
		bookingService: bookingService,
		eventService:   eventService,
		policy:         policy,
	}
}

func (s *service) Quote(ctx context.Context, userID, bookingID uuid.UUID) (*Quote, error) {
	booking, event, err := s.load(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	return s.quote(booking, event, time.Now())
}

func (s *service) Cancel(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*bookings.BookingResponse, error) {
	booking, event, err := s.load(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	quote, err := s.quote(booking, event, time.Now())
	if err != nil {
		return nil, err
	}

	return s.bookingService.Cancel(ctx, userID, bookingID, reason, quote.RefundAmount)
}

func (s *service) load(ctx context.Context, userID, bookingID uuid.UUID) (*bookings.Booking, *events.EventResponse, error) {
	booking, err := s.bookingService.GetOwnedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, nil, err
	}

	event, err := s.eventService.GetEventByID(ctx, booking.EventID)
	if err != nil {
		return nil, nil, err
	}

	return booking, event, nil
}

func (s *service) quote(booking *bookings.Booking, event *events.EventResponse, now time.Time) (*Quote, error) {
	switch booking.Status {
	case bookings.StatusConfirmed:
		return s.policy.EvaluateConfirmed(event.StartsAt, now, booking.TotalPrice)
	case bookings.StatusHeld:
		if booking.IsExpiredAt(now) {
			return nil, apperrors.New(apperrors.KindGone, "hold has expired")
		}
		return s.policy.EvaluateHeld(event.StartsAt, now)
	default:
		return nil, apperrors.Newf(apperrors.KindConflict,
			"booking is %s and cannot be cancelled", booking.Status)
	}
}
