package bookings

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Booking is a claim on one or more inventory units. It is born HELD with an
// expiry; confirmation within the window makes it CONFIRMED and permanent.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingRef string    `gorm:"unique;not null;size:20" json:"booking_ref"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	EventID    uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	TotalUnits int       `gorm:"not null" json:"total_units"`
	TotalPrice float64   `gorm:"not null" json:"total_price"`
	Status     Status    `gorm:"type:varchar(20);check:status IN ('HELD', 'CONFIRMED', 'CANCELLED', 'EXPIRED');default:'HELD'" json:"status"`

	// ExpiresAt is the hold deadline. Nil once the booking leaves HELD.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Payment fields set on confirmation
	PaymentID     string     `gorm:"size:100" json:"payment_id,omitempty"`
	PaymentMethod string     `gorm:"size:30" json:"payment_method,omitempty"`
	PaymentStatus string     `gorm:"size:20" json:"payment_status,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`

	// Cancellation fields set when the booking is cancelled
	CancelReason string     `gorm:"size:255" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	RefundAmount *float64   `json:"refund_amount,omitempty"`

	// ExpiredAt stamps when a lapsed hold was settled by the reaper.
	ExpiredAt *time.Time `json:"expired_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Units []BookingUnit `json:"units,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// BookingUnit is one line of a booking: a claim on a single unit. Released
// flips when the unit returns to the pool (expiry or cancellation) so the
// partial unique index on unit_id only covers live claims.
type BookingUnit struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	UnitID    uuid.UUID `gorm:"type:uuid;index;not null" json:"unit_id"`
	Label     string    `gorm:"not null;size:32" json:"label"`
	Price     float64   `gorm:"not null" json:"price"`
	Released  bool      `gorm:"not null;default:false" json:"released"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for BookingUnit
func (BookingUnit) TableName() string {
	return "booking_units"
}

// IsExpiredAt reports whether a HELD booking's window has lapsed. A lapsed
// hold is treated as expired even before the reaper has flipped its status.
func (b *Booking) IsExpiredAt(now time.Time) bool {
	return b.Status == StatusHeld && b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

const refCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewBookingRef generates a reference like TKT-20260830-7KQ2XN. The charset
// drops lookalike characters so refs survive being read over the phone.
func NewBookingRef(now time.Time) string {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(refCharset)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform entropy source is broken
			suffix[i] = refCharset[0]
			continue
		}
		suffix[i] = refCharset[n.Int64()]
	}
	return fmt.Sprintf("TKT-%s-%s", now.Format("20060102"), string(suffix))
}
