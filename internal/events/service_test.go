package events

import (
	"context"
	"testing"
	"time"

	"ticketd/internal/shared/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(event *Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockRepository) GetByID(id uuid.UUID) (*Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Event), args.Error(1)
}

func (m *MockRepository) Update(id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	args := m.Called(id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Event), args.Error(1)
}

func (m *MockRepository) GetAll(query EventListQuery) ([]Event, int64, error) {
	args := m.Called(query)
	return args.Get(0).([]Event), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) GetUpcomingEvents(limit int) ([]Event, error) {
	args := m.Called(limit)
	return args.Get(0).([]Event), args.Error(1)
}

func (m *MockRepository) MarkInventoryGenerated(id uuid.UUID) error {
	args := m.Called(id)
	return args.Error(0)
}

// fakeGenerator records generation specs.
type fakeGenerator struct {
	spec  GenerationSpec
	count int
	err   error
}

func (f *fakeGenerator) GenerateUnits(ctx context.Context, eventID uuid.UUID, spec GenerationSpec) (int, error) {
	f.spec = spec
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func (f *fakeGenerator) RegenerateUnits(ctx context.Context, eventID uuid.UUID, spec GenerationSpec) (int, error) {
	return f.GenerateUnits(ctx, eventID, spec)
}

func validCreateRequest() CreateEventRequest {
	return CreateEventRequest{
		Name:        "Symphony Under the Stars",
		Venue:       "Riverside Amphitheater",
		StartsAt:    time.Now().Add(30 * 24 * time.Hour),
		SeatingType: "RESERVED",
		BasePrice:   45,
		Sections: []SectionRequest{
			{Name: "A", Rows: 2, SeatsPerRow: 10, PriceMultiplier: 2.0},
			{Name: "B", Rows: 3, SeatsPerRow: 10, PriceMultiplier: 1.0},
		},
	}
}

func TestCreateEvent_DerivesCapacityFromSections(t *testing.T) {
	repo := new(MockRepository)
	gen := &fakeGenerator{count: 50}
	svc := NewService(repo)
	svc.SetInventoryGenerator(gen)

	adminID := uuid.New()
	repo.On("Create", mock.Anything).Run(func(args mock.Arguments) {
		e := args.Get(0).(*Event)
		e.ID = uuid.New()
	}).Return(nil)
	repo.On("MarkInventoryGenerated", mock.Anything).Return(nil)

	resp, err := svc.CreateEvent(context.Background(), adminID, validCreateRequest())

	assert.NoError(t, err)
	assert.Equal(t, 50, resp.Capacity)
	assert.Equal(t, EventStatusDraft, resp.Status)
	assert.True(t, resp.InventoryGenerated)
	assert.Equal(t, 50, gen.spec.Capacity)
	assert.Len(t, gen.spec.Sections, 2)
	repo.AssertExpectations(t)
}

func TestCreateEvent_PastStartRejected(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)

	req := validCreateRequest()
	req.StartsAt = time.Now().Add(-time.Hour)

	_, err := svc.CreateEvent(context.Background(), uuid.New(), req)

	assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))
	repo.AssertNotCalled(t, "Create")
}

func TestCreateEvent_ReservedNeedsSections(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)

	req := validCreateRequest()
	req.Sections = nil

	_, err := svc.CreateEvent(context.Background(), uuid.New(), req)

	assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))
}

func TestUpdateEvent_PublishRequiresInventory(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)

	eventID := uuid.New()
	repo.On("GetByID", eventID).Return(&Event{
		ID:                 eventID,
		Status:             EventStatusDraft,
		InventoryGenerated: false,
	}, nil)

	published := "published"
	_, err := svc.UpdateEventAsAdmin(context.Background(), eventID, uuid.New(),
		UpdateEventRequest{Status: &published})

	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	repo.AssertNotCalled(t, "Update")
}

func TestRegenerateInventory_ReservedRecomputesCapacity(t *testing.T) {
	repo := new(MockRepository)
	gen := &fakeGenerator{count: 30}
	svc := NewService(repo)
	svc.SetInventoryGenerator(gen)

	eventID := uuid.New()
	repo.On("GetByID", eventID).Return(&Event{
		ID:          eventID,
		SeatingType: SeatingReserved,
		BasePrice:   45,
	}, nil)
	repo.On("Update", eventID, mock.MatchedBy(func(updates map[string]interface{}) bool {
		return updates["capacity"] == 30
	})).Return(&Event{ID: eventID, Capacity: 30}, nil)

	count, err := svc.RegenerateInventory(context.Background(), eventID, uuid.New(),
		RegenerateInventoryRequest{
			Sections: []SectionRequest{{Name: "A", Rows: 3, SeatsPerRow: 10}},
		})

	assert.NoError(t, err)
	assert.Equal(t, 30, count)
	assert.Equal(t, 30, gen.spec.Capacity)
	assert.Equal(t, 45.0, gen.spec.BasePrice)
	repo.AssertExpectations(t)
}

func TestRegenerateInventory_ReservedNeedsSections(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	svc.SetInventoryGenerator(&fakeGenerator{})

	eventID := uuid.New()
	repo.On("GetByID", eventID).Return(&Event{ID: eventID, SeatingType: SeatingReserved}, nil)

	_, err := svc.RegenerateInventory(context.Background(), eventID, uuid.New(),
		RegenerateInventoryRequest{})

	assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))
}

func TestGetBookableEvent(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name  string
		event Event
		kind  apperrors.Kind
	}{
		{
			"bookable",
			Event{Status: EventStatusPublished, InventoryGenerated: true, StartsAt: future},
			"",
		},
		{
			"draft",
			Event{Status: EventStatusDraft, InventoryGenerated: true, StartsAt: future},
			apperrors.KindConflict,
		},
		{
			"cancelled",
			Event{Status: EventStatusCancelled, InventoryGenerated: true, StartsAt: future},
			apperrors.KindConflict,
		},
		{
			"no inventory",
			Event{Status: EventStatusPublished, InventoryGenerated: false, StartsAt: future},
			apperrors.KindConflict,
		},
		{
			"already started",
			Event{Status: EventStatusPublished, InventoryGenerated: true, StartsAt: past},
			apperrors.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo)

			event := tt.event
			event.ID = uuid.New()
			repo.On("GetByID", event.ID).Return(&event, nil)

			got, err := svc.GetBookableEvent(context.Background(), event.ID)

			if tt.kind == "" {
				assert.NoError(t, err)
				assert.Equal(t, event.ID, got.ID)
			} else {
				assert.Equal(t, tt.kind, apperrors.KindOf(err))
			}
		})
	}
}

func TestGetBookableEvent_NotFound(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)

	eventID := uuid.New()
	repo.On("GetByID", eventID).Return(nil, assert.AnError)

	_, err := svc.GetBookableEvent(context.Background(), eventID)
	assert.Error(t, err)
}
