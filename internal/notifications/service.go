package notifications

import (
	"context"

	"ticketd/pkg/logger"
)

// Service builds and publishes booking lifecycle notifications. Publishing is
// best effort: a bus outage never fails the booking flow that triggered it.
type Service interface {
	SendBookingConfirmation(ctx context.Context, userID, bookingRef, eventID string, totalUnits int, totalPrice float64)
	SendBookingCancellation(ctx context.Context, userID, bookingRef, eventID string, refundAmount float64)
	SendBookingExpired(ctx context.Context, userID, bookingRef, eventID string)
	Close() error
}

type service struct {
	producer Producer
	log      *logger.Logger
}

func NewService(producer Producer, log *logger.Logger) Service {
	return &service{producer: producer, log: log}
}

func (s *service) SendBookingConfirmation(ctx context.Context, userID, bookingRef, eventID string, totalUnits int, totalPrice float64) {
	n := NewBookingNotification(TypeBookingConfirmed, userID, bookingRef, eventID)
	n.TotalUnits = totalUnits
	n.TotalPrice = totalPrice
	s.publish(ctx, n)
}

func (s *service) SendBookingCancellation(ctx context.Context, userID, bookingRef, eventID string, refundAmount float64) {
	n := NewBookingNotification(TypeBookingCancelled, userID, bookingRef, eventID)
	n.RefundAmount = &refundAmount
	s.publish(ctx, n)
}

func (s *service) SendBookingExpired(ctx context.Context, userID, bookingRef, eventID string) {
	n := NewBookingNotification(TypeBookingExpired, userID, bookingRef, eventID)
	s.publish(ctx, n)
}

func (s *service) publish(ctx context.Context, n *BookingNotification) {
	if err := s.producer.Publish(ctx, n); err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish notification", err, map[string]interface{}{
			"type":        n.Type,
			"booking_ref": n.BookingRef,
		})
	}
}

func (s *service) Close() error {
	return s.producer.Close()
}
