package inventory

import (
	"time"

	"github.com/google/uuid"
)

// UnitStatus is derived from the unit's flags and reservation expiry, never
// stored. A lapsed reservation reads as AVAILABLE even before the reaper has
// swept the backing hold.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "AVAILABLE"
	UnitReserved  UnitStatus = "RESERVED"
	UnitBooked    UnitStatus = "BOOKED"
	UnitBlocked   UnitStatus = "BLOCKED"
)

// Unit is one sellable thing: a named seat for reserved seating, or a
// generated admission slot for general admission.
type Unit struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:unique_unit_label,priority:1"`
	Label   string    `json:"label" gorm:"not null;size:32;uniqueIndex:unique_unit_label,priority:2"`
	Section string    `json:"section" gorm:"size:10"`
	Price   float64   `json:"price" gorm:"not null;check:price >= 0"`

	Booked  bool `json:"booked" gorm:"not null;default:false"`
	Blocked bool `json:"blocked" gorm:"not null;default:false"`

	// BookedBy and BookedAt are set on confirmation and survive until the
	// booking is cancelled.
	BookedBy *uuid.UUID `json:"booked_by,omitempty" gorm:"type:uuid"`
	BookedAt *time.Time `json:"booked_at,omitempty"`

	// ReservedBy and ReserveExpiresAt mark a live hold. The pair stays set on
	// an expired hold until the reaper clears it; readers must compare the
	// expiry against now.
	ReservedBy       *uuid.UUID `json:"reserved_by,omitempty" gorm:"type:uuid"`
	BookingID        *uuid.UUID `json:"booking_id,omitempty" gorm:"type:uuid"`
	ReserveExpiresAt *time.Time `json:"reserve_expires_at,omitempty"`

	// Version increments on every mutation. Exposed so pollers can cheaply
	// detect change without diffing unit lists.
	Version int64 `json:"version" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// StatusAt derives the unit's state as of the given instant.
func (u *Unit) StatusAt(now time.Time) UnitStatus {
	switch {
	case u.Booked:
		return UnitBooked
	case u.Blocked:
		return UnitBlocked
	case u.ReservedBy != nil && u.ReserveExpiresAt != nil && u.ReserveExpiresAt.After(now):
		return UnitReserved
	default:
		return UnitAvailable
	}
}

// TableName specifies the table name for GORM
func (Unit) TableName() string {
	return "units"
}

type UnitView struct {
	Label   string     `json:"label"`
	Section string     `json:"section,omitempty"`
	Price   float64    `json:"price"`
	Status  UnitStatus `json:"status"`
}

// AvailabilitySummary is the public availability snapshot for an event.
type AvailabilitySummary struct {
	EventID   string     `json:"event_id"`
	Total     int        `json:"total"`
	Available int        `json:"available"`
	Reserved  int        `json:"reserved"`
	Booked    int        `json:"booked"`
	Blocked   int        `json:"blocked"`
	Version   int64      `json:"version"`
	Units     []UnitView `json:"units,omitempty"`
}

type BlockUnitRequest struct {
	Blocked bool `json:"blocked"`
}
