package bookings

import (
	"context"
	"errors"
	"time"

	"ticketd/internal/events"
	"ticketd/internal/live"
	"ticketd/internal/notifications"
	"ticketd/internal/payments"
	"ticketd/internal/shared/apperrors"
	"ticketd/internal/shared/config"
	"ticketd/internal/tickets"
	"ticketd/pkg/lock"
	"ticketd/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	lockKeyEventPrefix   = "ticketd:lock:event:"
	lockKeyBookingPrefix = "ticketd:lock:booking:"
)

type Service interface {
	Reserve(ctx context.Context, userID uuid.UUID, req ReserveRequest) (*BookingResponse, error)
	Confirm(ctx context.Context, userID, bookingID uuid.UUID, req ConfirmRequest) (*ConfirmResponse, error)
	GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*BookingResponse, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)

	// GetOwnedBooking returns the raw booking for cross-feature flows that
	// need status and money fields rather than the response shape.
	GetOwnedBooking(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error)

	// Cancel settles the booking with the given reason and refund.
	// Eligibility and refund math belong to the cancellation feature.
	Cancel(ctx context.Context, userID, bookingID uuid.UUID, reason string, refundAmount float64) (*BookingResponse, error)

	// SetReaper wires the expiry worker for hold fast-path scheduling.
	// Optional; without it the periodic sweep alone settles lapsed holds.
	SetReaper(r *Reaper)
}

// EventService is the slice of the events feature the booking engine needs.
type EventService interface {
	GetBookableEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// AvailabilityInvalidator drops cached availability after unit mutations.
type AvailabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context, eventID uuid.UUID)
}

type service struct {
	repo         Repository
	eventService EventService
	locks        *lock.Manager
	processor    payments.Processor
	notifier     notifications.Service
	ticketGen    tickets.Generator
	broadcaster  live.Broadcaster
	invalidator  AvailabilityInvalidator
	reaper       *Reaper
	cfg          config.BookingConfig
	log          *logger.Logger
}

func NewService(
	repo Repository,
	eventService EventService,
	locks *lock.Manager,
	processor payments.Processor,
	notifier notifications.Service,
	ticketGen tickets.Generator,
	broadcaster live.Broadcaster,
	invalidator AvailabilityInvalidator,
	cfg config.BookingConfig,
	log *logger.Logger,
) Service {
	return &service{
		repo:         repo,
		eventService: eventService,
		locks:        locks,
		processor:    processor,
		notifier:     notifier,
		ticketGen:    ticketGen,
		broadcaster:  broadcaster,
		invalidator:  invalidator,
		cfg:          cfg,
		log:          log,
	}
}

func (s *service) SetReaper(r *Reaper) {
	s.reaper = r
}

func (s *service) Reserve(ctx context.Context, userID uuid.UUID, req ReserveRequest) (*BookingResponse, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "invalid event id")
	}

	if len(req.UnitLabels) > 0 && req.Quantity > 0 {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "specify unit labels or a quantity, not both")
	}
	if len(req.UnitLabels) == 0 && req.Quantity == 0 {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "specify unit labels or a quantity")
	}

	requested := req.Quantity
	if len(req.UnitLabels) > 0 {
		requested = len(req.UnitLabels)
		if hasDuplicates(req.UnitLabels) {
			return nil, apperrors.New(apperrors.KindInvalidRequest, "duplicate unit labels in request")
		}
	}
	if requested > s.cfg.MaxUnitsPerRequest {
		return nil, apperrors.Newf(apperrors.KindInvalidRequest,
			"at most %d units per reservation", s.cfg.MaxUnitsPerRequest)
	}

	event, err := s.eventService.GetBookableEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// Picking named seats only makes sense with a seat map.
	if len(req.UnitLabels) > 0 && event.SeatingType != events.SeatingReserved {
		return nil, apperrors.New(apperrors.KindInvalidRequest,
			"general admission events take a quantity, not unit labels")
	}

	// Serialize reservations per event. The database transaction is the
	// correctness backstop; the lock keeps contending requests from piling
	// up on the same rows.
	eventLock, err := s.locks.Acquire(ctx, lockKeyEventPrefix+eventID.String(),
		s.cfg.ReserveLockTTL, s.cfg.ReserveLockWait)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.log.LogLockContention(ctx, eventID.String())
			return nil, apperrors.New(apperrors.KindRateLimited,
				"event is under heavy demand, please retry")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to acquire reservation lock", err)
	}
	defer func() { _ = eventLock.Release(ctx) }()

	now := time.Now()
	expiresAt := now.Add(s.cfg.HoldDuration)
	booking := &Booking{
		BookingRef: NewBookingRef(now),
		UserID:     userID,
		EventID:    eventID,
		ExpiresAt:  &expiresAt,
	}

	if err := s.repo.CreateHeldBooking(ctx, booking, req.UnitLabels, req.Quantity); err != nil {
		return nil, err
	}

	s.afterUnitMutation(ctx, eventID, "reserved", booking.TotalUnits)
	if s.reaper != nil {
		s.reaper.ScheduleExpiry(booking.ID, expiresAt)
	}
	s.log.LogUnitsReserved(ctx, booking.ID.String(), eventID.String(), userID.String(), booking.TotalUnits)

	resp := booking.ToResponse(now)
	return &resp, nil
}

func hasDuplicates(labels []string) bool {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			return true
		}
		seen[l] = struct{}{}
	}
	return false
}

func (s *service) Confirm(ctx context.Context, userID, bookingID uuid.UUID, req ConfirmRequest) (*ConfirmResponse, error) {
	// One confirmation attempt per booking at a time. The TTL outlives the
	// payment round-trip so the lock cannot lapse mid-charge and let a second
	// attempt double-charge.
	bookingLock, err := s.locks.TryAcquire(ctx, lockKeyBookingPrefix+bookingID.String(), s.cfg.ConfirmLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperrors.Conflict("a confirmation for this booking is already in progress")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to acquire confirmation lock", err)
	}
	defer func() { _ = bookingLock.Release(ctx) }()

	booking, err := s.GetOwnedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != StatusHeld {
		if booking.Status == StatusExpired {
			return nil, apperrors.New(apperrors.KindGone, "hold has expired")
		}
		// A second confirmation is rejected outright. The first charge
		// stands; no new one is attempted.
		if booking.Status == StatusConfirmed {
			return nil, apperrors.Conflict("booking is already confirmed")
		}
		return nil, apperrors.Newf(apperrors.KindConflict, "booking is %s", booking.Status)
	}
	if booking.IsExpiredAt(time.Now()) {
		// Reject first, settle soon after: the reaper runs the same idempotent
		// expiry path the sweep uses.
		if s.reaper != nil {
			s.reaper.ScheduleExpiry(booking.ID, time.Now())
		}
		return nil, apperrors.New(apperrors.KindGone, "hold has expired")
	}

	// Charge before mutating. A declined payment leaves the hold untouched
	// so the user can retry within the window.
	charge, err := s.processor.Charge(ctx, payments.ChargeRequest{
		Amount:    booking.TotalPrice,
		Currency:  s.cfg.PaymentCurrency,
		Method:    req.PaymentMethod,
		Token:     req.PaymentToken,
		Reference: booking.BookingRef,
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindPaymentFailed {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.KindPaymentFailed, "payment could not be processed", err)
	}

	confirmed, err := s.repo.ConfirmBooking(ctx, bookingID, charge.PaymentID, req.PaymentMethod)
	if err != nil {
		// The charge went through but the booking could not be settled.
		// Reverse it rather than strand the money.
		_, refundErr := s.processor.Refund(ctx, payments.RefundRequest{
			PaymentID: charge.PaymentID,
			Amount:    charge.Amount,
			Currency:  charge.Currency,
			Reason:    "booking confirmation failed",
		})
		if refundErr != nil {
			s.log.ErrorWithContext(ctx, "failed to reverse charge after confirmation failure", refundErr,
				map[string]interface{}{"booking_id": bookingID.String(), "payment_id": charge.PaymentID})
		}
		return nil, err
	}

	s.afterUnitMutation(ctx, confirmed.EventID, "confirmed", confirmed.TotalUnits)
	s.notifier.SendBookingConfirmation(ctx, userID.String(), confirmed.BookingRef,
		confirmed.EventID.String(), confirmed.TotalUnits, confirmed.TotalPrice)
	s.log.LogBookingConfirmed(ctx, confirmed.ID.String(), charge.PaymentID)

	return s.buildConfirmResponse(confirmed)
}

func (s *service) buildConfirmResponse(booking *Booking) (*ConfirmResponse, error) {
	ticketList := make([]TicketInfo, 0, len(booking.Units))
	for _, unit := range booking.Units {
		t, err := s.ticketGen.Generate(booking.BookingRef, unit.Label)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to generate ticket", err)
		}
		ticketList = append(ticketList, TicketInfo{
			Label:    unit.Label,
			QRCode:   t.QRCode,
			MimeType: t.MimeType,
		})
	}

	return &ConfirmResponse{
		Booking: booking.ToResponse(time.Now()),
		Tickets: ticketList,
	}, nil
}

func (s *service) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.GetOwnedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	resp := booking.ToResponse(time.Now())

	// A lapsed hold reads as EXPIRED even before the reaper settles it, so
	// clients never see a countdown at zero on a still-HELD row.
	if booking.IsExpiredAt(time.Now()) {
		resp.Status = StatusExpired.String()
		resp.HoldSecondsLeft = nil
	}

	return &resp, nil
}

func (s *service) GetOwnedBooking(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("booking")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to get booking", err)
	}

	// Other users' bookings are indistinguishable from missing ones.
	if booking.UserID != userID {
		return nil, apperrors.NotFound("booking")
	}

	return booking, nil
}

func (s *service) ListUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	bookingList, totalCount, err := s.repo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list bookings", err)
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	now := time.Now()
	responses := make([]BookingResponse, len(bookingList))
	for i := range bookingList {
		responses[i] = bookingList[i].ToResponse(now)
		if bookingList[i].IsExpiredAt(now) {
			responses[i].Status = StatusExpired.String()
			responses[i].HoldSecondsLeft = nil
		}
	}

	return &PaginatedBookings{
		Bookings:   responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
	}, nil
}

func (s *service) Cancel(ctx context.Context, userID, bookingID uuid.UUID, reason string, refundAmount float64) (*BookingResponse, error) {
	booking, err := s.GetOwnedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	wasConfirmed := booking.Status == StatusConfirmed

	cancelled, err := s.repo.CancelBooking(ctx, bookingID, reason, refundAmount)
	if err != nil {
		return nil, err
	}

	// Refund the processor side only for money actually captured.
	if wasConfirmed && refundAmount > 0 && booking.PaymentID != "" {
		refundReason := reason
		if refundReason == "" {
			refundReason = "booking cancelled"
		}
		_, refundErr := s.processor.Refund(ctx, payments.RefundRequest{
			PaymentID: booking.PaymentID,
			Amount:    refundAmount,
			Currency:  s.cfg.PaymentCurrency,
			Reason:    refundReason,
		})
		if refundErr != nil {
			s.log.ErrorWithContext(ctx, "failed to issue refund", refundErr,
				map[string]interface{}{"booking_id": bookingID.String(), "payment_id": booking.PaymentID})
		}
	}

	s.afterUnitMutation(ctx, cancelled.EventID, "released", cancelled.TotalUnits)
	s.notifier.SendBookingCancellation(ctx, userID.String(), cancelled.BookingRef,
		cancelled.EventID.String(), refundAmount)
	s.log.LogBookingCancelled(ctx, cancelled.ID.String(), refundAmount)

	resp := cancelled.ToResponse(time.Now())
	return &resp, nil
}

// afterUnitMutation refreshes caches and pushes a live update after any flow
// that changed unit state.
func (s *service) afterUnitMutation(ctx context.Context, eventID uuid.UUID, kind string, units int) {
	if s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, eventID)
	}
	if s.broadcaster != nil {
		_ = s.broadcaster.Broadcast(ctx, live.Update{
			EventID: eventID.String(),
			Kind:    kind,
			Units:   units,
		})
	}
}
