package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateBatch(ctx context.Context, units []Unit) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Unit, error)
	GetSummary(ctx context.Context, eventID uuid.UUID) (*AvailabilitySummary, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	SetBlocked(ctx context.Context, eventID uuid.UUID, label string, blocked bool) error

	// ReplaceForEvent swaps the event's unit set atomically. Refused while any
	// unit is booked or carries a live reservation.
	ReplaceForEvent(ctx context.Context, eventID uuid.UUID, units []Unit) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBatch(ctx context.Context, units []Unit) error {
	return r.db.WithContext(ctx).CreateInBatches(units, 500).Error
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Unit, error) {
	var units []Unit
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("label ASC").
		Find(&units).Error
	return units, err
}

func (r *repository) GetSummary(ctx context.Context, eventID uuid.UUID) (*AvailabilitySummary, error) {
	var row struct {
		Total     int
		Available int
		Reserved  int
		Booked    int
		Blocked   int
		Version   int64
	}

	// Status is derived, so the buckets are computed with the same expiry
	// comparison StatusAt uses. Version is the max over units: any mutation
	// bumps it.
	err := r.db.WithContext(ctx).
		Table("units").
		Select(`
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE booked) AS booked,
			COUNT(*) FILTER (WHERE NOT booked AND blocked) AS blocked,
			COUNT(*) FILTER (WHERE NOT booked AND NOT blocked AND reserved_by IS NOT NULL AND reserve_expires_at > ?) AS reserved,
			COUNT(*) FILTER (WHERE NOT booked AND NOT blocked AND (reserved_by IS NULL OR reserve_expires_at <= ?)) AS available,
			COALESCE(MAX(version), 0) AS version`,
			time.Now(), time.Now()).
		Where("event_id = ?", eventID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &AvailabilitySummary{
		EventID:   eventID.String(),
		Total:     row.Total,
		Available: row.Available,
		Reserved:  row.Reserved,
		Booked:    row.Booked,
		Blocked:   row.Blocked,
		Version:   row.Version,
	}, nil
}

func (r *repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Unit{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (r *repository) ReplaceForEvent(ctx context.Context, eventID uuid.UUID, units []Unit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claimed int64
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Model(&Unit{}).
			Where("event_id = ?", eventID).
			Where("booked = true OR (reserved_by IS NOT NULL AND reserve_expires_at > ?)", time.Now()).
			Count(&claimed).Error
		if err != nil {
			return fmt.Errorf("failed to check claimed units: %w", err)
		}
		if claimed > 0 {
			return fmt.Errorf("%d units are booked or reserved", claimed)
		}

		if err := tx.Where("event_id = ?", eventID).Delete(&Unit{}).Error; err != nil {
			return fmt.Errorf("failed to delete units: %w", err)
		}

		return tx.CreateInBatches(units, 500).Error
	})
}

func (r *repository) SetBlocked(ctx context.Context, eventID uuid.UUID, label string, blocked bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unit Unit
		err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("event_id = ? AND label = ?", eventID, label).
			First(&unit).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return fmt.Errorf("failed to lock unit: %w", err)
		}

		if blocked {
			if unit.Booked {
				return fmt.Errorf("unit %s is already booked", label)
			}
			if unit.StatusAt(time.Now()) == UnitReserved {
				return fmt.Errorf("unit %s is currently reserved", label)
			}
		}

		return tx.Model(&unit).Updates(map[string]interface{}{
			"blocked": blocked,
			"version": gorm.Expr("version + 1"),
		}).Error
	})
}
