package events

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string      `json:"name" gorm:"not null;size:255"`
	Description string      `json:"description" gorm:"type:text"`
	Venue       string      `json:"venue" gorm:"not null;size:255"`
	StartsAt    time.Time   `json:"starts_at" gorm:"not null"`
	SeatingType SeatingType `json:"seating_type" gorm:"type:varchar(20);not null;default:'GENERAL'"`
	// Capacity is the unit count for GENERAL events. For RESERVED events it is
	// derived from the generated seat map.
	Capacity  int         `json:"capacity" gorm:"not null;check:capacity > 0"`
	BasePrice float64     `json:"base_price" gorm:"not null;check:base_price >= 0"`
	Status    EventStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`

	// InventoryGenerated flips once units exist so generation runs exactly once.
	InventoryGenerated bool `json:"inventory_generated" gorm:"default:false"`

	CreatedBy uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

type EventResponse struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	Venue              string      `json:"venue"`
	StartsAt           time.Time   `json:"starts_at"`
	SeatingType        SeatingType `json:"seating_type"`
	Capacity           int         `json:"capacity"`
	BasePrice          float64     `json:"base_price"`
	Status             EventStatus `json:"status"`
	InventoryGenerated bool        `json:"inventory_generated"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required,min=3,max=255"`
	Description string    `json:"description" binding:"max=2000"`
	Venue       string    `json:"venue" binding:"required,min=3,max=255"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	SeatingType string    `json:"seating_type" binding:"required,oneof=RESERVED GENERAL"`
	Capacity    int       `json:"capacity" binding:"required,min=1,max=100000"`
	BasePrice   float64   `json:"base_price" binding:"min=0"`
	// Sections describes the seat map for RESERVED events. Ignored for GENERAL.
	Sections []SectionRequest `json:"sections" binding:"omitempty,dive"`
}

// SectionRequest is one block of the seat map: rows x seats labelled
// "<section>-<row><seat>", e.g. "A-12".
type SectionRequest struct {
	Name            string  `json:"name" binding:"required,min=1,max=10"`
	Rows            int     `json:"rows" binding:"required,min=1,max=100"`
	SeatsPerRow     int     `json:"seats_per_row" binding:"required,min=1,max=200"`
	PriceMultiplier float64 `json:"price_multiplier" binding:"omitempty,min=0.1,max=10"`
}

// RegenerateInventoryRequest replaces an event's unit set with a new layout.
// Sections drive RESERVED events; Capacity drives GENERAL ones.
type RegenerateInventoryRequest struct {
	Capacity int              `json:"capacity" binding:"omitempty,min=1,max=100000"`
	Sections []SectionRequest `json:"sections" binding:"omitempty,dive"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Venue       *string    `json:"venue" binding:"omitempty,min=3,max=255"`
	StartsAt    *time.Time `json:"starts_at"`
	BasePrice   *float64   `json:"base_price" binding:"omitempty,min=0"`
	Status      *string    `json:"status" binding:"omitempty,oneof=draft published cancelled completed"`
}

type EventListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Venue    string `form:"venue"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	Status   string `form:"status" binding:"omitempty,oneof=draft published cancelled completed"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:                 e.ID.String(),
		Name:               e.Name,
		Description:        e.Description,
		Venue:              e.Venue,
		StartsAt:           e.StartsAt,
		SeatingType:        e.SeatingType,
		Capacity:           e.Capacity,
		BasePrice:          e.BasePrice,
		Status:             e.Status,
		InventoryGenerated: e.InventoryGenerated,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}
