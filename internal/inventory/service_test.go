package inventory

import (
	"context"
	"testing"
	"time"

	"ticketd/internal/events"
	"ticketd/internal/shared/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateBatch(ctx context.Context, units []Unit) error {
	args := m.Called(ctx, units)
	return args.Error(0)
}

func (m *MockRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Unit, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Unit), args.Error(1)
}

func (m *MockRepository) GetSummary(ctx context.Context, eventID uuid.UUID) (*AvailabilitySummary, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AvailabilitySummary), args.Error(1)
}

func (m *MockRepository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) SetBlocked(ctx context.Context, eventID uuid.UUID, label string, blocked bool) error {
	args := m.Called(ctx, eventID, label, blocked)
	return args.Error(0)
}

func (m *MockRepository) ReplaceForEvent(ctx context.Context, eventID uuid.UUID, units []Unit) error {
	args := m.Called(ctx, eventID, units)
	return args.Error(0)
}

func TestGenerateUnits_ReservedSeating(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	var created []Unit
	repo.On("CountByEvent", mock.Anything, eventID).Return(int64(0), nil)
	repo.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).([]Unit)
		}).
		Return(nil)

	count, err := svc.GenerateUnits(context.Background(), eventID, events.GenerationSpec{
		SeatingType: events.SeatingReserved,
		BasePrice:   50,
		Sections: []events.SectionRequest{
			{Name: "a", Rows: 2, SeatsPerRow: 3, PriceMultiplier: 2.0},
			{Name: "B", Rows: 1, SeatsPerRow: 4}, // zero multiplier defaults to 1
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 10, count)
	assert.Len(t, created, 10)

	// Section names are uppercased in labels
	assert.Equal(t, "A-1-1", created[0].Label)
	assert.Equal(t, "A", created[0].Section)
	assert.Equal(t, 100.0, created[0].Price)
	assert.Equal(t, "A-2-3", created[5].Label)
	assert.Equal(t, "B-1-1", created[6].Label)
	assert.Equal(t, 50.0, created[6].Price)
}

func TestGenerateUnits_GeneralAdmission(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	var created []Unit
	repo.On("CountByEvent", mock.Anything, eventID).Return(int64(0), nil)
	repo.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).([]Unit)
		}).
		Return(nil)

	count, err := svc.GenerateUnits(context.Background(), eventID, events.GenerationSpec{
		SeatingType: events.SeatingGeneral,
		BasePrice:   25,
		Capacity:    3,
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, "GA-000001", created[0].Label)
	assert.Equal(t, "GA-000003", created[2].Label)
	assert.Equal(t, "GA", created[0].Section)
	assert.Equal(t, 25.0, created[0].Price)
}

func TestGenerateUnits_AlreadyGenerated(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	repo.On("CountByEvent", mock.Anything, eventID).Return(int64(600), nil)

	_, err := svc.GenerateUnits(context.Background(), eventID, events.GenerationSpec{
		SeatingType: events.SeatingGeneral,
		Capacity:    500,
	})

	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	repo.AssertNotCalled(t, "CreateBatch")
}

func TestGenerateUnits_EmptySpec(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	repo.On("CountByEvent", mock.Anything, eventID).Return(int64(0), nil)

	_, err := svc.GenerateUnits(context.Background(), eventID, events.GenerationSpec{
		SeatingType: events.SeatingGeneral,
		Capacity:    0,
	})

	assert.Equal(t, apperrors.KindInvalidRequest, apperrors.KindOf(err))
}

func TestRegenerateUnits_ReplacesTheSet(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	repo.On("ReplaceForEvent", mock.Anything, eventID, mock.Anything).Return(nil)

	count, err := svc.RegenerateUnits(context.Background(), eventID, events.GenerationSpec{
		SeatingType: events.SeatingGeneral,
		BasePrice:   30,
		Capacity:    5,
	})

	assert.NoError(t, err)
	assert.Equal(t, 5, count)
	repo.AssertExpectations(t)
}

func TestRegenerateUnits_RefusedWhileClaimed(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	repo.On("ReplaceForEvent", mock.Anything, eventID, mock.Anything).
		Return(assert.AnError)

	_, err := svc.RegenerateUnits(context.Background(), eventID, events.GenerationSpec{
		SeatingType: events.SeatingGeneral,
		Capacity:    5,
	})

	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestGetAvailability_Summary(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	repo.On("GetSummary", mock.Anything, eventID).Return(&AvailabilitySummary{
		EventID:   eventID.String(),
		Total:     100,
		Available: 80,
		Reserved:  15,
		Booked:    5,
		Version:   42,
	}, nil)

	summary, err := svc.GetAvailability(context.Background(), eventID, false)

	assert.NoError(t, err)
	assert.Equal(t, 80, summary.Available)
	assert.Equal(t, int64(42), summary.Version)
	assert.Empty(t, summary.Units)
	repo.AssertNotCalled(t, "ListByEvent")
}

func TestGetAvailability_WithUnits(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	userID := uuid.New()
	live := time.Now().Add(10 * time.Minute)
	lapsed := time.Now().Add(-10 * time.Minute)

	repo.On("GetSummary", mock.Anything, eventID).Return(&AvailabilitySummary{
		EventID: eventID.String(),
		Total:   3,
	}, nil)
	repo.On("ListByEvent", mock.Anything, eventID).Return([]Unit{
		{Label: "A-1-1", Section: "A", Price: 100, ReservedBy: &userID, ReserveExpiresAt: &live},
		{Label: "A-1-2", Section: "A", Price: 100, ReservedBy: &userID, ReserveExpiresAt: &lapsed},
		{Label: "A-1-3", Section: "A", Price: 100, Booked: true},
	}, nil)

	summary, err := svc.GetAvailability(context.Background(), eventID, true)

	assert.NoError(t, err)
	assert.Len(t, summary.Units, 3)
	assert.Equal(t, UnitReserved, summary.Units[0].Status)
	// A lapsed reservation reads as available before the reaper runs
	assert.Equal(t, UnitAvailable, summary.Units[1].Status)
	assert.Equal(t, UnitBooked, summary.Units[2].Status)
}

func TestGetAvailability_UnknownEvent(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	eventID := uuid.New()

	repo.On("GetSummary", mock.Anything, eventID).Return(&AvailabilitySummary{Total: 0}, nil)

	_, err := svc.GetAvailability(context.Background(), eventID, false)

	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUnitStatusAt(t *testing.T) {
	now := time.Now()
	userID := uuid.New()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	tests := []struct {
		name string
		unit Unit
		want UnitStatus
	}{
		{"fresh unit", Unit{}, UnitAvailable},
		{"booked", Unit{Booked: true}, UnitBooked},
		{"blocked", Unit{Blocked: true}, UnitBlocked},
		{"live hold", Unit{ReservedBy: &userID, ReserveExpiresAt: &future}, UnitReserved},
		{"lapsed hold", Unit{ReservedBy: &userID, ReserveExpiresAt: &past}, UnitAvailable},
		{"booked wins over hold", Unit{Booked: true, ReservedBy: &userID, ReserveExpiresAt: &future}, UnitBooked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.unit.StatusAt(now))
		})
	}
}
