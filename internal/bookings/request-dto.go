package bookings

// ReserveRequest starts a hold. For reserved seating the caller names the
// unit labels it wants; for general admission it asks for a quantity and the
// engine picks units. Exactly one of the two must be set.
type ReserveRequest struct {
	EventID    string   `json:"event_id" validate:"required,uuid"`
	UnitLabels []string `json:"unit_labels" validate:"omitempty,min=1,dive,min=1,max=32"`
	Quantity   int      `json:"quantity" validate:"omitempty,min=1"`
}

// ConfirmRequest completes a hold by paying for it.
type ConfirmRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card wallet bank_transfer"`
	PaymentToken  string `json:"payment_token" validate:"required"`
}

// BookingListQuery filters a user's booking history.
type BookingListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=HELD CONFIRMED CANCELLED EXPIRED"`
}
