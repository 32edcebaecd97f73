package bookings

import (
	"errors"
	"fmt"
	"time"

	"context"

	"ticketd/internal/inventory"
	"ticketd/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// CreateHeldBooking atomically claims units and creates the HELD booking.
	// Exactly one of unitLabels or quantity drives unit selection.
	CreateHeldBooking(ctx context.Context, booking *Booking, unitLabels []string, quantity int) error

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// ConfirmBooking flips a HELD booking and its units to booked state.
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID, paymentID, paymentMethod string) (*Booking, error)

	// ExpireBooking reaps a lapsed hold. Returns the expired booking, or nil
	// with no error when another actor already settled it.
	ExpireBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)

	// CancelBooking releases the booking's units and records the reason and
	// refund.
	CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string, refundAmount float64) (*Booking, error)

	// ListExpiredHolds returns ids of HELD bookings whose window lapsed.
	ListExpiredHolds(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateHeldBooking(ctx context.Context, booking *Booking, unitLabels []string, quantity int) error {
	now := time.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Self-reap: if this user has a lapsed hold on the event that the
		// sweeper has not reached yet, settle it here so the one-live-hold
		// rule does not lock them out of their own units.
		if err := r.expireOwnLapsedHolds(tx, booking.UserID, booking.EventID, now); err != nil {
			return err
		}

		// 2. One live hold per user per event.
		var liveHolds int64
		err := tx.Model(&Booking{}).
			Where("user_id = ? AND event_id = ? AND status = ?", booking.UserID, booking.EventID, StatusHeld).
			Count(&liveHolds).Error
		if err != nil {
			return fmt.Errorf("failed to check existing holds: %w", err)
		}
		if liveHolds > 0 {
			return apperrors.Conflict("you already have an active hold for this event")
		}

		// 3. Lock the candidate units. Ordering by label keeps lock
		// acquisition order stable across concurrent transactions.
		var units []inventory.Unit
		unitQuery := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("event_id = ?", booking.EventID).
			Order("label ASC")

		if len(unitLabels) > 0 {
			err = unitQuery.Where("label IN ?", unitLabels).Find(&units).Error
		} else {
			err = unitQuery.
				Where("booked = false AND blocked = false").
				Where("reserved_by IS NULL OR reserve_expires_at <= ?", now).
				Limit(quantity).
				Find(&units).Error
		}
		if err != nil {
			return fmt.Errorf("failed to lock units: %w", err)
		}

		// 4. Validate the claim. Named requests fail listing every unit that
		// cannot be taken; quantity requests fail on shortfall.
		if len(unitLabels) > 0 {
			if err := validateNamedUnits(units, unitLabels, now); err != nil {
				return err
			}
		} else if len(units) < quantity {
			return apperrors.Newf(apperrors.KindConflict,
				"only %d units available, requested %d", len(units), quantity).
				WithDetails(map[string]interface{}{
					"available": len(units),
					"requested": quantity,
				})
		}

		// 5. Release any stale claims on the units being taken over so the
		// live-claim unique index accepts the new lines.
		unitIDs := make([]uuid.UUID, len(units))
		for i, u := range units {
			unitIDs[i] = u.ID
		}
		err = tx.Model(&BookingUnit{}).
			Where("unit_id IN ? AND released = false", unitIDs).
			Update("released", true).Error
		if err != nil {
			return fmt.Errorf("failed to release stale unit claims: %w", err)
		}

		// 6. Create the booking and its lines.
		booking.Status = StatusHeld
		booking.TotalUnits = len(units)
		booking.TotalPrice = 0
		for _, u := range units {
			booking.TotalPrice += u.Price
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		lines := make([]BookingUnit, len(units))
		for i, u := range units {
			lines[i] = BookingUnit{
				BookingID: booking.ID,
				UnitID:    u.ID,
				Label:     u.Label,
				Price:     u.Price,
			}
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to create booking units: %w", err)
		}
		booking.Units = lines

		// 7. Mark the units reserved.
		err = tx.Model(&inventory.Unit{}).
			Where("id IN ?", unitIDs).
			Updates(map[string]interface{}{
				"reserved_by":        booking.UserID,
				"booking_id":         booking.ID,
				"reserve_expires_at": booking.ExpiresAt,
				"version":            gorm.Expr("version + 1"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to reserve units: %w", err)
		}

		return nil
	})
}

// validateNamedUnits checks that every requested label was found and is
// claimable, reporting the full set of problems in one rejection.
func validateNamedUnits(units []inventory.Unit, requested []string, now time.Time) error {
	found := make(map[string]inventory.Unit, len(units))
	for _, u := range units {
		found[u.Label] = u
	}

	var unavailable []string
	for _, label := range requested {
		u, ok := found[label]
		if !ok {
			unavailable = append(unavailable, label)
			continue
		}
		if u.StatusAt(now) != inventory.UnitAvailable {
			unavailable = append(unavailable, label)
		}
	}

	if len(unavailable) > 0 {
		return apperrors.New(apperrors.KindConflict, "some units are not available").
			WithDetails(map[string]interface{}{
				"unavailable_units": unavailable,
			})
	}
	return nil
}

// expireOwnLapsedHolds settles the user's lapsed HELD bookings on the event
// inside the caller's transaction.
func (r *repository) expireOwnLapsedHolds(tx *gorm.DB, userID, eventID uuid.UUID, now time.Time) error {
	var lapsed []Booking
	err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("user_id = ? AND event_id = ? AND status = ? AND expires_at <= ?",
			userID, eventID, StatusHeld, now).
		Find(&lapsed).Error
	if err != nil {
		return fmt.Errorf("failed to find lapsed holds: %w", err)
	}

	for i := range lapsed {
		if err := releaseBookingUnits(tx, lapsed[i].ID); err != nil {
			return err
		}
		err = tx.Model(&lapsed[i]).Updates(map[string]interface{}{
			"status":     StatusExpired,
			"expired_at": now,
			"expires_at": nil,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to expire lapsed hold: %w", err)
		}
	}
	return nil
}

// releaseBookingUnits returns a booking's unbooked units to the pool and
// closes its claim lines. Units already stolen by a newer booking carry a
// different booking_id and are left alone.
func releaseBookingUnits(tx *gorm.DB, bookingID uuid.UUID) error {
	err := tx.Model(&inventory.Unit{}).
		Where("booking_id = ? AND booked = false", bookingID).
		Updates(map[string]interface{}{
			"reserved_by":        nil,
			"booking_id":         nil,
			"reserve_expires_at": nil,
			"version":            gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to release units: %w", err)
	}

	err = tx.Model(&BookingUnit{}).
		Where("booking_id = ? AND released = false", bookingID).
		Update("released", true).Error
	if err != nil {
		return fmt.Errorf("failed to close booking lines: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Units").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var bookingList []Booking
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)

	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	offset := (query.Page - 1) * query.Limit
	err := db.Preload("Units").
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookingList).Error

	return bookingList, totalCount, err
}

func (r *repository) ConfirmBooking(ctx context.Context, bookingID uuid.UUID, paymentID, paymentMethod string) (*Booking, error) {
	var confirmed *Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("id = ?", bookingID).
			First(&booking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("booking")
			}
			return fmt.Errorf("failed to lock booking: %w", err)
		}

		// Holding the row lock settles the race with the reaper: whoever
		// locked first decided the booking's fate.
		if booking.Status != StatusHeld {
			if booking.Status == StatusExpired {
				return apperrors.New(apperrors.KindGone, "hold has expired")
			}
			return apperrors.Newf(apperrors.KindConflict, "booking is %s", booking.Status)
		}

		// The pre-payment expiry check ran without the row lock, so the hold
		// may have lapsed during the payment round-trip. No grace window: a
		// late settlement is refused here and the caller reverses the charge.
		if booking.IsExpiredAt(time.Now()) {
			return apperrors.New(apperrors.KindGone, "hold expired during payment")
		}

		// A lapsed hold can lose units to a newer booking before the reaper
		// runs. Confirm only while every unit still carries this booking's
		// claim.
		var owned int64
		err = tx.Model(&inventory.Unit{}).
			Where("booking_id = ?", bookingID).
			Count(&owned).Error
		if err != nil {
			return fmt.Errorf("failed to count owned units: %w", err)
		}
		if owned != int64(booking.TotalUnits) {
			return apperrors.New(apperrors.KindGone, "hold has expired and its units were reclaimed")
		}

		now := time.Now()
		err = tx.Model(&inventory.Unit{}).
			Where("booking_id = ? AND booked = false", bookingID).
			Updates(map[string]interface{}{
				"booked":             true,
				"booked_by":          gorm.Expr("reserved_by"),
				"booked_at":          now,
				"reserved_by":        nil,
				"reserve_expires_at": nil,
				"version":            gorm.Expr("version + 1"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to book units: %w", err)
		}

		err = tx.Model(&booking).Updates(map[string]interface{}{
			"status":         StatusConfirmed,
			"payment_id":     paymentID,
			"payment_method": paymentMethod,
			"payment_status": PaymentStatusCompleted,
			"confirmed_at":   now,
			"expires_at":     nil,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to confirm booking: %w", err)
		}

		if err := tx.Preload("Units").Where("id = ?", bookingID).First(&booking).Error; err != nil {
			return fmt.Errorf("failed to reload booking: %w", err)
		}
		confirmed = &booking
		return nil
	})

	return confirmed, err
}

func (r *repository) ExpireBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	var expired *Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("id = ?", bookingID).
			First(&booking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to lock booking: %w", err)
		}

		// Confirmed or already reaped between the sweep and this lock.
		now := time.Now()
		if !booking.IsExpiredAt(now) {
			return nil
		}

		if err := releaseBookingUnits(tx, booking.ID); err != nil {
			return err
		}

		err = tx.Model(&booking).Updates(map[string]interface{}{
			"status":     StatusExpired,
			"expired_at": now,
			"expires_at": nil,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to expire booking: %w", err)
		}

		booking.Status = StatusExpired
		booking.ExpiredAt = &now
		booking.ExpiresAt = nil
		expired = &booking
		return nil
	})

	return expired, err
}

func (r *repository) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string, refundAmount float64) (*Booking, error) {
	var cancelled *Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("id = ?", bookingID).
			First(&booking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("booking")
			}
			return fmt.Errorf("failed to lock booking: %w", err)
		}

		if !booking.Status.CanTransition(StatusCancelled) {
			return apperrors.Newf(apperrors.KindConflict, "booking is %s and cannot be cancelled", booking.Status)
		}

		if err := releaseBookingUnits(tx, booking.ID); err != nil {
			return err
		}

		// A cancelled confirmation must free the booked flag too.
		err = tx.Model(&inventory.Unit{}).
			Where("booking_id = ? AND booked = true", bookingID).
			Updates(map[string]interface{}{
				"booked":             false,
				"booked_by":          nil,
				"booked_at":          nil,
				"reserved_by":        nil,
				"booking_id":         nil,
				"reserve_expires_at": nil,
				"version":            gorm.Expr("version + 1"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to free booked units: %w", err)
		}

		now := time.Now()
		err = tx.Model(&booking).Updates(map[string]interface{}{
			"status":        StatusCancelled,
			"cancel_reason": reason,
			"cancelled_at":  now,
			"refund_amount": refundAmount,
			"expires_at":    nil,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}

		if err := tx.Preload("Units").Where("id = ?", bookingID).First(&booking).Error; err != nil {
			return fmt.Errorf("failed to reload booking: %w", err)
		}
		cancelled = &booking
		return nil
	})

	return cancelled, err
}

func (r *repository) ListExpiredHolds(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("status = ? AND expires_at <= ?", StatusHeld, asOf).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
