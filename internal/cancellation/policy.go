package cancellation

import (
	"math"
	"time"

	"ticketd/internal/shared/apperrors"
	"ticketd/internal/shared/config"
)

// Policy holds the refund windows. Measured from cancellation time to event
// start: at or beyond FullWindow refunds everything, between Cutoff and
// FullWindow refunds PartialPercent, inside Cutoff cancellation is refused.
type Policy struct {
	Cutoff         time.Duration
	FullWindow     time.Duration
	PartialPercent float64
}

func PolicyFromConfig(cfg config.BookingConfig) Policy {
	return Policy{
		Cutoff:         cfg.CancelCutoff,
		FullWindow:     cfg.RefundFullWindow,
		PartialPercent: cfg.RefundPartialPercent,
	}
}

// Quote is a cancellation eligibility answer.
type Quote struct {
	Cancellable   bool    `json:"cancellable"`
	RefundAmount  float64 `json:"refund_amount"`
	RefundPercent float64 `json:"refund_percent"`
	Reason        string  `json:"reason,omitempty"`
}

// EvaluateConfirmed computes the refund for cancelling a confirmed booking.
func (p Policy) EvaluateConfirmed(eventStartsAt, at time.Time, totalPrice float64) (*Quote, error) {
	until := eventStartsAt.Sub(at)

	if until <= 0 {
		return nil, apperrors.Conflict("event has already started")
	}
	if until < p.Cutoff {
		return nil, apperrors.Newf(apperrors.KindForbidden,
			"cancellation closes %s before the event", p.Cutoff)
	}

	percent := p.PartialPercent
	if until >= p.FullWindow {
		percent = 100
	}

	return &Quote{
		Cancellable:   true,
		RefundAmount:  roundMoney(totalPrice * percent / 100),
		RefundPercent: percent,
	}, nil
}

// EvaluateHeld quotes cancelling an unconfirmed hold. Nothing was charged,
// so the hold may be dropped at any point before the event with no refund.
func (p Policy) EvaluateHeld(eventStartsAt, at time.Time) (*Quote, error) {
	if !eventStartsAt.After(at) {
		return nil, apperrors.Conflict("event has already started")
	}
	return &Quote{Cancellable: true, RefundAmount: 0, RefundPercent: 0}, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
