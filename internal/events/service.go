package events

import (
	"context"
	"errors"
	"math"
	"time"

	"ticketd/internal/shared/apperrors"
	"ticketd/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	cacheKeyEventDetail   = "ticketd:events:detail:"
	cacheKeyEventUpcoming = "ticketd:events:upcoming"
	cachePatternEventsAll = "ticketd:events:*"

	eventCacheTTL = 60 * time.Second
)

type Service interface {
	// Service dependency injection
	SetInventoryGenerator(gen InventoryGenerator)
	SetCacheService(cacheService cache.Service)

	CreateEvent(ctx context.Context, adminID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	UpdateEventAsAdmin(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req UpdateEventRequest) (*EventResponse, error)
	GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error)

	// RegenerateInventory replaces the event's unit set with a new layout.
	// Refused while any unit is booked or under a live hold.
	RegenerateInventory(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req RegenerateInventoryRequest) (int, error)

	// GetBookableEvent returns the event if reservations may be taken against
	// it: published, inventory generated, and not yet started.
	GetBookableEvent(ctx context.Context, id uuid.UUID) (*Event, error)
}

// InventoryGenerator creates the per-event unit rows. Declared here to avoid
// a circular dependency with the inventory package.
type InventoryGenerator interface {
	GenerateUnits(ctx context.Context, eventID uuid.UUID, spec GenerationSpec) (int, error)
	RegenerateUnits(ctx context.Context, eventID uuid.UUID, spec GenerationSpec) (int, error)
}

// GenerationSpec describes the inventory to mint for a new event.
type GenerationSpec struct {
	SeatingType SeatingType
	BasePrice   float64
	Capacity    int
	Sections    []SectionRequest
}

type service struct {
	repo         Repository
	generator    InventoryGenerator
	cacheService cache.Service
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) SetInventoryGenerator(gen InventoryGenerator) {
	s.generator = gen
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) invalidateEventCache(ctx context.Context) {
	if s.cacheService == nil {
		return
	}
	// Best effort. Stale reads age out via TTL anyway.
	_ = s.cacheService.DeletePattern(ctx, cachePatternEventsAll)
}

func (s *service) CreateEvent(ctx context.Context, adminID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	if req.StartsAt.Before(time.Now()) {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "event start time must be in the future")
	}

	seatingType := SeatingType(req.SeatingType)
	if seatingType == SeatingReserved && len(req.Sections) == 0 {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "reserved seating events require at least one section")
	}

	capacity := req.Capacity
	if seatingType == SeatingReserved {
		capacity = 0
		for _, sec := range req.Sections {
			capacity += sec.Rows * sec.SeatsPerRow
		}
	}

	event := &Event{
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		SeatingType: seatingType,
		Capacity:    capacity,
		BasePrice:   req.BasePrice,
		Status:      EventStatusDraft,
		CreatedBy:   adminID,
	}

	if err := s.repo.Create(event); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to create event", err)
	}

	if s.generator != nil {
		spec := GenerationSpec{
			SeatingType: seatingType,
			BasePrice:   req.BasePrice,
			Capacity:    capacity,
			Sections:    req.Sections,
		}
		if _, err := s.generator.GenerateUnits(ctx, event.ID, spec); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to generate inventory", err)
		}
		if err := s.repo.MarkInventoryGenerated(event.ID); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to mark inventory generated", err)
		}
		event.InventoryGenerated = true
	}

	s.invalidateEventCache(ctx)

	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) GetEventByID(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	cacheKey := cacheKeyEventDetail + id.String()

	if s.cacheService != nil {
		var cached EventResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to get event", err)
	}

	resp := event.ToResponse()

	if s.cacheService != nil {
		_ = s.cacheService.Set(ctx, cacheKey, resp, eventCacheTTL)
	}

	return &resp, nil
}

func (s *service) UpdateEventAsAdmin(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to get event", err)
	}

	updates := map[string]interface{}{
		"updated_by": adminID,
	}

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Venue != nil {
		updates["venue"] = *req.Venue
	}
	if req.StartsAt != nil {
		if req.StartsAt.Before(time.Now()) {
			return nil, apperrors.New(apperrors.KindInvalidRequest, "event start time must be in the future")
		}
		updates["starts_at"] = *req.StartsAt
	}
	if req.BasePrice != nil {
		updates["base_price"] = *req.BasePrice
	}
	if req.Status != nil {
		next := EventStatus(*req.Status)
		if next == EventStatusPublished && !existing.InventoryGenerated {
			return nil, apperrors.Conflict("cannot publish an event before its inventory is generated")
		}
		updates["status"] = next
	}

	event, err := s.repo.Update(id, updates)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to update event", err)
	}

	s.invalidateEventCache(ctx)

	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) RegenerateInventory(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req RegenerateInventoryRequest) (int, error) {
	if s.generator == nil {
		return 0, apperrors.New(apperrors.KindInternal, "inventory generator not configured")
	}

	event, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.NotFound("event")
		}
		return 0, apperrors.Wrap(apperrors.KindInternal, "failed to get event", err)
	}

	if event.SeatingType == SeatingReserved && len(req.Sections) == 0 {
		return 0, apperrors.New(apperrors.KindInvalidRequest, "reserved seating events require at least one section")
	}

	capacity := req.Capacity
	if event.SeatingType == SeatingReserved {
		capacity = 0
		for _, sec := range req.Sections {
			capacity += sec.Rows * sec.SeatsPerRow
		}
	}
	if capacity <= 0 {
		return 0, apperrors.New(apperrors.KindInvalidRequest, "regeneration yields no units")
	}

	count, err := s.generator.RegenerateUnits(ctx, id, GenerationSpec{
		SeatingType: event.SeatingType,
		BasePrice:   event.BasePrice,
		Capacity:    capacity,
		Sections:    req.Sections,
	})
	if err != nil {
		return 0, err
	}

	if _, err := s.repo.Update(id, map[string]interface{}{
		"capacity":            capacity,
		"inventory_generated": true,
		"updated_by":          adminID,
	}); err != nil {
		return 0, apperrors.Wrap(apperrors.KindInternal, "failed to update event capacity", err)
	}

	s.invalidateEventCache(ctx)
	return count, nil
}

func (s *service) GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	eventList, totalCount, err := s.repo.GetAll(query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list events", err)
	}

	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	responses := make([]EventResponse, len(eventList))
	for i, e := range eventList {
		responses[i] = e.ToResponse()
	}

	return &PaginatedEvents{
		Events:     responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(query.Limit))),
	}, nil
}

func (s *service) GetUpcomingEvents(ctx context.Context, limit int) ([]EventResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	if s.cacheService != nil && limit == 10 {
		var cached []EventResponse
		if err := s.cacheService.Get(ctx, cacheKeyEventUpcoming, &cached); err == nil {
			return cached, nil
		}
	}

	eventList, err := s.repo.GetUpcomingEvents(limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to get upcoming events", err)
	}

	responses := make([]EventResponse, len(eventList))
	for i, e := range eventList {
		responses[i] = e.ToResponse()
	}

	if s.cacheService != nil && limit == 10 {
		_ = s.cacheService.Set(ctx, cacheKeyEventUpcoming, responses, eventCacheTTL)
	}

	return responses, nil
}

func (s *service) GetBookableEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	event, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to get event", err)
	}

	if !event.Status.IsBookable() {
		return nil, apperrors.Newf(apperrors.KindConflict, "event is not open for booking (status %s)", event.Status)
	}
	if !event.InventoryGenerated {
		return nil, apperrors.Conflict("event inventory has not been generated")
	}
	if !event.StartsAt.After(time.Now()) {
		return nil, apperrors.Conflict("event has already started")
	}

	return event, nil
}
