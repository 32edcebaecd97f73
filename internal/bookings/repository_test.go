package bookings

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"ticketd/internal/inventory"
	"ticketd/internal/shared/apperrors"
)

func availableUnit(label string) inventory.Unit {
	return inventory.Unit{ID: uuid.New(), Label: label, Price: 50.0}
}

func reservedUnit(label string, expiresIn time.Duration, now time.Time) inventory.Unit {
	u := availableUnit(label)
	holder := uuid.New()
	expiresAt := now.Add(expiresIn)
	u.ReservedBy = &holder
	u.ReserveExpiresAt = &expiresAt
	return u
}

func TestValidateNamedUnits(t *testing.T) {
	now := time.Now()

	booked := availableUnit("A-1-2")
	booked.Booked = true
	blocked := availableUnit("A-1-3")
	blocked.Blocked = true

	tests := []struct {
		name        string
		units       []inventory.Unit
		requested   []string
		unavailable []string
	}{
		{
			name:      "all available",
			units:     []inventory.Unit{availableUnit("A-1-1"), availableUnit("A-1-4")},
			requested: []string{"A-1-1", "A-1-4"},
		},
		{
			name:        "label not found",
			units:       []inventory.Unit{availableUnit("A-1-1")},
			requested:   []string{"A-1-1", "Z-9-9"},
			unavailable: []string{"Z-9-9"},
		},
		{
			name:        "booked unit",
			units:       []inventory.Unit{booked},
			requested:   []string{"A-1-2"},
			unavailable: []string{"A-1-2"},
		},
		{
			name:        "blocked unit",
			units:       []inventory.Unit{blocked},
			requested:   []string{"A-1-3"},
			unavailable: []string{"A-1-3"},
		},
		{
			name:        "held by someone else",
			units:       []inventory.Unit{reservedUnit("A-1-5", 5*time.Minute, now)},
			requested:   []string{"A-1-5"},
			unavailable: []string{"A-1-5"},
		},
		{
			name:      "lapsed reservation reads available",
			units:     []inventory.Unit{reservedUnit("A-1-6", -time.Minute, now)},
			requested: []string{"A-1-6"},
		},
		{
			name:        "every problem reported in one rejection",
			units:       []inventory.Unit{availableUnit("A-1-1"), booked, reservedUnit("A-1-5", 5*time.Minute, now)},
			requested:   []string{"A-1-1", "A-1-2", "A-1-5", "Z-9-9"},
			unavailable: []string{"A-1-2", "A-1-5", "Z-9-9"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateNamedUnits(tc.units, tc.requested, now)

			if len(tc.unavailable) == 0 {
				assert.NoError(t, err)
				return
			}

			assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
			appErr := apperrors.From(err)
			assert.Equal(t, tc.unavailable, appErr.Details["unavailable_units"])
		})
	}
}
