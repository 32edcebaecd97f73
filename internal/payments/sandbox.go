package payments

import (
	"context"
	"strings"
	"time"

	"ticketd/internal/shared/apperrors"

	"github.com/google/uuid"
)

// Sandbox is an in-process processor for development and tests. Token
// prefixes drive the outcome: "tok_fail" declines, "tok_slow" sleeps before
// succeeding so timeout handling can be exercised, anything else succeeds.
type Sandbox struct {
	// Latency is added to every charge. Zero means instant.
	Latency time.Duration
}

func NewSandbox() *Sandbox {
	return &Sandbox{}
}

func (s *Sandbox) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Amount < 0 {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "charge amount cannot be negative")
	}

	delay := s.Latency
	if strings.HasPrefix(req.Token, "tok_slow") {
		delay += 2 * time.Second
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if strings.HasPrefix(req.Token, "tok_fail") {
		return nil, apperrors.New(apperrors.KindPaymentFailed, "payment declined").
			WithDetails(map[string]interface{}{
				"reference": req.Reference,
				"reason":    "card_declined",
			})
	}

	return &ChargeResult{
		PaymentID:   "pay_" + uuid.New().String(),
		Amount:      req.Amount,
		Currency:    req.Currency,
		ProcessedAt: time.Now(),
	}, nil
}

func (s *Sandbox) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if req.PaymentID == "" {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "refund requires a payment id")
	}
	if req.Amount < 0 {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "refund amount cannot be negative")
	}

	return &RefundResult{
		RefundID:    "re_" + uuid.New().String(),
		Amount:      req.Amount,
		ProcessedAt: time.Now(),
	}, nil
}
