package payments

import (
	"context"
	"time"
)

// ChargeRequest describes one payment attempt. Reference carries the booking
// ref so charges are traceable from the processor's side.
type ChargeRequest struct {
	Amount    float64
	Currency  string
	Method    string
	Token     string
	Reference string
}

// ChargeResult is a successful charge.
type ChargeResult struct {
	PaymentID   string
	Amount      float64
	Currency    string
	ProcessedAt time.Time
}

// RefundRequest reverses part or all of a prior charge.
type RefundRequest struct {
	PaymentID string
	Amount    float64
	Currency  string
	Reason    string
}

// RefundResult is a successful refund.
type RefundResult struct {
	RefundID    string
	Amount      float64
	ProcessedAt time.Time
}

// Processor is the payment gateway boundary. Implementations must be safe for
// concurrent use; the booking engine serializes per booking, not globally.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}
