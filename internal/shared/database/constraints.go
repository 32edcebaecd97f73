package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds database constraints for concurrency control that
// AutoMigrate cannot express.
func MigrateConstraints(db *gorm.DB) error {
	// A unit belongs to at most one booking line at a time. The partial index
	// only covers active lines so released units can be re-booked.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_active_unit_booking
		ON booking_units (unit_id)
		WHERE released = false;
	`).Error
	if err != nil {
		return err
	}

	// One live hold per user per event. Expired and terminal bookings drop out
	// of the index so the user can hold again.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_active_hold_per_user_event
		ON bookings (user_id, event_id)
		WHERE status = 'HELD';
	`).Error
	if err != nil {
		return err
	}

	// Reaper sweep scans by status and expiry time.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_status_expires
		ON bookings (status, expires_at);
	`).Error
	if err != nil {
		return err
	}

	// Availability queries scan units by event.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_units_event_id
		ON units (event_id);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
