package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	TypeBookingCancelled NotificationType = "BOOKING_CANCELLED"
	TypeBookingExpired   NotificationType = "BOOKING_EXPIRED"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusQueued  NotificationStatus = "QUEUED"
)

// BookingNotification is the message consumers turn into emails and pushes.
type BookingNotification struct {
	ID           uuid.UUID          `json:"id"`
	Type         NotificationType   `json:"type"`
	UserID       string             `json:"user_id"`
	BookingRef   string             `json:"booking_ref"`
	EventID      string             `json:"event_id"`
	TotalUnits   int                `json:"total_units"`
	TotalPrice   float64            `json:"total_price"`
	RefundAmount *float64           `json:"refund_amount,omitempty"`
	Status       NotificationStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func NewBookingNotification(t NotificationType, userID, bookingRef, eventID string) *BookingNotification {
	now := time.Now()
	return &BookingNotification{
		ID:         uuid.New(),
		Type:       t,
		UserID:     userID,
		BookingRef: bookingRef,
		EventID:    eventID,
		Status:     NotificationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (n *BookingNotification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// GetPartitionKey routes all of a user's notifications to one partition so
// consumers see them in order.
func (n *BookingNotification) GetPartitionKey() string {
	return n.UserID
}
