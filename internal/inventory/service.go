package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticketd/internal/events"
	"ticketd/internal/shared/apperrors"
	"ticketd/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const availabilityCacheTTL = 5 * time.Second

// CacheKeyAvailability is the cache key for an event's availability summary.
// Mutating flows invalidate it so polling clients converge fast.
func CacheKeyAvailability(eventID uuid.UUID) string {
	return "ticketd:availability:" + eventID.String()
}

type Service interface {
	SetCacheService(cacheService cache.Service)

	// GenerateUnits mints the unit rows for a new event. Satisfies
	// events.InventoryGenerator.
	GenerateUnits(ctx context.Context, eventID uuid.UUID, spec events.GenerationSpec) (int, error)

	// RegenerateUnits replaces the event's unit set with a freshly minted one.
	// Allowed only while no unit is booked or under a live hold.
	RegenerateUnits(ctx context.Context, eventID uuid.UUID, spec events.GenerationSpec) (int, error)

	GetAvailability(ctx context.Context, eventID uuid.UUID, includeUnits bool) (*AvailabilitySummary, error)
	SetUnitBlocked(ctx context.Context, eventID uuid.UUID, label string, blocked bool) error
	InvalidateAvailability(ctx context.Context, eventID uuid.UUID)
}

type service struct {
	repo         Repository
	cacheService cache.Service
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) GenerateUnits(ctx context.Context, eventID uuid.UUID, spec events.GenerationSpec) (int, error) {
	existing, err := s.repo.CountByEvent(ctx, eventID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindInternal, "failed to count existing units", err)
	}
	if existing > 0 {
		return 0, apperrors.Conflict("inventory already generated for event")
	}

	units := buildUnits(eventID, spec)
	if len(units) == 0 {
		return 0, apperrors.New(apperrors.KindInvalidRequest, "generation spec yields no units")
	}

	if err := s.repo.CreateBatch(ctx, units); err != nil {
		return 0, apperrors.Wrap(apperrors.KindInternal, "failed to create units", err)
	}

	return len(units), nil
}

func (s *service) RegenerateUnits(ctx context.Context, eventID uuid.UUID, spec events.GenerationSpec) (int, error) {
	units := buildUnits(eventID, spec)
	if len(units) == 0 {
		return 0, apperrors.New(apperrors.KindInvalidRequest, "generation spec yields no units")
	}

	if err := s.repo.ReplaceForEvent(ctx, eventID, units); err != nil {
		return 0, apperrors.Wrap(apperrors.KindConflict, "cannot regenerate inventory", err)
	}

	s.InvalidateAvailability(ctx, eventID)
	return len(units), nil
}

func buildUnits(eventID uuid.UUID, spec events.GenerationSpec) []Unit {
	if spec.SeatingType == events.SeatingReserved {
		return buildReservedUnits(eventID, spec)
	}
	return buildGeneralUnits(eventID, spec)
}

// buildReservedUnits lays out the seat map section by section. Labels look
// like "A-3-12": section A, row 3, seat 12.
func buildReservedUnits(eventID uuid.UUID, spec events.GenerationSpec) []Unit {
	var units []Unit
	for _, sec := range spec.Sections {
		multiplier := sec.PriceMultiplier
		if multiplier == 0 {
			multiplier = 1
		}
		name := strings.ToUpper(sec.Name)
		for row := 1; row <= sec.Rows; row++ {
			for seat := 1; seat <= sec.SeatsPerRow; seat++ {
				units = append(units, Unit{
					EventID: eventID,
					Label:   fmt.Sprintf("%s-%d-%d", name, row, seat),
					Section: name,
					Price:   spec.BasePrice * multiplier,
				})
			}
		}
	}
	return units
}

// buildGeneralUnits mints anonymous admission slots so general admission and
// reserved seating share one reservation path.
func buildGeneralUnits(eventID uuid.UUID, spec events.GenerationSpec) []Unit {
	units := make([]Unit, 0, spec.Capacity)
	for i := 1; i <= spec.Capacity; i++ {
		units = append(units, Unit{
			EventID: eventID,
			Label:   fmt.Sprintf("GA-%06d", i),
			Section: "GA",
			Price:   spec.BasePrice,
		})
	}
	return units
}

func (s *service) GetAvailability(ctx context.Context, eventID uuid.UUID, includeUnits bool) (*AvailabilitySummary, error) {
	cacheKey := CacheKeyAvailability(eventID)

	// Only the summary form is cached. The per-unit listing is an admin and
	// seat-picker view that wants fresh state.
	if s.cacheService != nil && !includeUnits {
		var cached AvailabilitySummary
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	summary, err := s.repo.GetSummary(ctx, eventID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to get availability", err)
	}
	if summary.Total == 0 {
		return nil, apperrors.NotFound("event inventory")
	}

	if includeUnits {
		units, err := s.repo.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list units", err)
		}
		now := time.Now()
		summary.Units = make([]UnitView, len(units))
		for i, u := range units {
			summary.Units[i] = UnitView{
				Label:   u.Label,
				Section: u.Section,
				Price:   u.Price,
				Status:  u.StatusAt(now),
			}
		}
		return summary, nil
	}

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, summary, availabilityCacheTTL)
	}

	return summary, nil
}

func (s *service) SetUnitBlocked(ctx context.Context, eventID uuid.UUID, label string, blocked bool) error {
	err := s.repo.SetBlocked(ctx, eventID, label, blocked)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("unit")
		}
		return apperrors.Wrap(apperrors.KindConflict, "cannot change unit block state", err)
	}

	s.InvalidateAvailability(ctx, eventID)
	return nil
}

func (s *service) InvalidateAvailability(ctx context.Context, eventID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	_ = s.cacheService.Delete(ctx, CacheKeyAvailability(eventID))
}
