package database

import (
	"ticketd/internal/bookings"
	"ticketd/internal/events"
	"ticketd/internal/inventory"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&events.Event{},
		&inventory.Unit{},
		&bookings.Booking{},
		&bookings.BookingUnit{},
	)
}
