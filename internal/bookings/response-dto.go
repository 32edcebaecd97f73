package bookings

import "time"

// BookingUnitInfo is one reserved or booked unit in a response.
type BookingUnitInfo struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// BookingResponse is the standard booking representation.
type BookingResponse struct {
	BookingID  string            `json:"booking_id"`
	BookingRef string            `json:"booking_ref"`
	EventID    string            `json:"event_id"`
	Status     string            `json:"status"`
	TotalUnits int               `json:"total_units"`
	TotalPrice float64           `json:"total_price"`
	Units      []BookingUnitInfo `json:"units"`
	ExpiresAt  *time.Time        `json:"expires_at,omitempty"`
	// HoldSecondsLeft is computed at render time so clients can show a
	// countdown without clock math.
	HoldSecondsLeft *int       `json:"hold_seconds_left,omitempty"`
	PaymentID       string     `json:"payment_id,omitempty"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	PaymentStatus   string     `json:"payment_status,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	RefundAmount    *float64   `json:"refund_amount,omitempty"`
	ExpiredAt       *time.Time `json:"expired_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ConfirmResponse wraps the confirmed booking with its issued tickets.
type ConfirmResponse struct {
	Booking BookingResponse `json:"booking"`
	Tickets []TicketInfo    `json:"tickets"`
}

// TicketInfo is one issued ticket: a unit plus its scannable artifact.
type TicketInfo struct {
	Label    string `json:"label"`
	QRCode   string `json:"qr_code"`
	MimeType string `json:"mime_type"`
}

// PaginatedBookings is a page of a user's booking history.
type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// ToResponse converts a booking (with preloaded units) to its response form.
func (b *Booking) ToResponse(now time.Time) BookingResponse {
	units := make([]BookingUnitInfo, 0, len(b.Units))
	for _, u := range b.Units {
		units = append(units, BookingUnitInfo{Label: u.Label, Price: u.Price})
	}

	resp := BookingResponse{
		BookingID:     b.ID.String(),
		BookingRef:    b.BookingRef,
		EventID:       b.EventID.String(),
		Status:        b.Status.String(),
		TotalUnits:    b.TotalUnits,
		TotalPrice:    b.TotalPrice,
		Units:         units,
		ExpiresAt:     b.ExpiresAt,
		PaymentID:     b.PaymentID,
		PaymentMethod: b.PaymentMethod,
		PaymentStatus: b.PaymentStatus,
		ConfirmedAt:   b.ConfirmedAt,
		CancelReason:  b.CancelReason,
		CancelledAt:   b.CancelledAt,
		RefundAmount:  b.RefundAmount,
		ExpiredAt:     b.ExpiredAt,
		CreatedAt:     b.CreatedAt,
	}

	if b.Status == StatusHeld && b.ExpiresAt != nil {
		secs := int(b.ExpiresAt.Sub(now).Seconds())
		if secs < 0 {
			secs = 0
		}
		resp.HoldSecondsLeft = &secs
	}

	return resp
}
