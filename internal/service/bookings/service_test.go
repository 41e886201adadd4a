package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
	"github.com/m04kA/SMC-LifecycleService/internal/statemachine"
	"github.com/m04kA/SMC-LifecycleService/pkg/types"
)

type fakeBookingRepo struct {
	bookings map[string]*domain.Booking
	listErr  error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*domain.Booking)}
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	f.bookings[booking.ID] = booking
	return booking, nil
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) ListByCustomer(_ context.Context, customerID string, state *domain.BookingState) ([]*domain.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.CustomerID != customerID {
			continue
		}
		if state != nil && b.CurrentState != *state {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) ListByResource(_ context.Context, filter domain.ResourceBookingsFilter) ([]*domain.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.ResourceID != filter.ResourceID {
			continue
		}
		if !filter.IncludeTerminal && b.CurrentState.IsTerminal() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type fakeLogRepo struct {
	records map[string][]*domain.TransitionRecord
	err     error
}

func (f *fakeLogRepo) HistoryFor(_ context.Context, bookingID string) ([]*domain.TransitionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[bookingID], nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestService(repo *fakeBookingRepo, logRepo *fakeLogRepo) *Service {
	if logRepo == nil {
		logRepo = &fakeLogRepo{records: make(map[string][]*domain.TransitionRecord)}
	}
	return NewService(repo, logRepo, statemachine.MustNew(), nopLogger{})
}

func validCreateRequest() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		ResourceID: "res_1",
		SlotDate:   "2026-01-12",
		StartTime:  "10:00",
		EndTime:    "11:00",
	}
}

func storedBooking(repo *fakeBookingRepo, id, customerID string, state domain.BookingState) *domain.Booking {
	b := &domain.Booking{
		ID:           id,
		ResourceID:   "res_1",
		CustomerID:   customerID,
		CurrentState: state,
		Slot: &domain.Slot{
			Date:  time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			Start: types.TimeString("10:00"),
			End:   types.TimeString("11:00"),
		},
	}
	repo.bookings[id] = b
	return b
}

func TestService_CreateDraft(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, nil)

	resp, err := svc.CreateDraft(context.Background(), "user_1", validCreateRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "res_1", resp.ResourceID)
	assert.Equal(t, "user_1", resp.CustomerID)
	assert.Equal(t, string(domain.StateDraft), resp.State)
	assert.Equal(t, "10:00", resp.StartTime)

	stored, ok := repo.bookings[resp.ID]
	require.True(t, ok)
	assert.Equal(t, domain.InitialState, stored.CurrentState)
}

func TestService_CreateDraft_InvalidSlot(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), nil)

	req := validCreateRequest()
	req.StartTime = "11:00"
	req.EndTime = "10:00"

	_, err := svc.CreateDraft(context.Background(), "user_1", req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_CreateDraft_MissingCustomer(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), nil)

	_, err := svc.CreateDraft(context.Background(), "", validCreateRequest())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_GetByID_NotFound(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), nil)

	_, err := svc.GetByID(context.Background(), "bk_missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_AvailableEvents(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, nil)
	storedBooking(repo, "bk_1", "user_1", domain.StateDraft)

	resp, err := svc.AvailableEvents(context.Background(), "bk_1")
	require.NoError(t, err)

	assert.Equal(t, "bk_1", resp.BookingID)
	assert.Equal(t, string(domain.StateDraft), resp.State)
	assert.Contains(t, resp.Events, string(domain.EventPlaceHold))
}

func TestService_AvailableEvents_TerminalStateIsEmpty(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, nil)
	storedBooking(repo, "bk_1", "user_1", domain.StateRefundedFull)

	resp, err := svc.AvailableEvents(context.Background(), "bk_1")
	require.NoError(t, err)
	assert.Empty(t, resp.Events)
}

func TestService_History(t *testing.T) {
	repo := newFakeBookingRepo()
	logRepo := &fakeLogRepo{records: map[string][]*domain.TransitionRecord{
		"bk_1": {
			{BookingID: "bk_1", FromState: domain.StateDraft, ToState: domain.StateHold, Event: domain.EventPlaceHold, ActorType: domain.ActorCustomer, ActorID: "user_1"},
			{BookingID: "bk_1", FromState: domain.StateHold, ToState: domain.StatePendingProvider, Event: domain.EventPaymentAuthorized, ActorType: domain.ActorCustomer, ActorID: "user_1"},
		},
	}}
	svc := newTestService(repo, logRepo)
	storedBooking(repo, "bk_1", "user_1", domain.StatePendingProvider)

	resp, err := svc.History(context.Background(), "bk_1")
	require.NoError(t, err)

	require.Len(t, resp.Transitions, 2)
	assert.Equal(t, string(domain.EventPlaceHold), resp.Transitions[0].Event)
	assert.Equal(t, string(domain.StatePendingProvider), resp.Transitions[1].ToState)
}

func TestService_History_DivergedLog(t *testing.T) {
	repo := newFakeBookingRepo()
	logRepo := &fakeLogRepo{records: map[string][]*domain.TransitionRecord{
		"bk_1": {
			{BookingID: "bk_1", FromState: domain.StateDraft, ToState: domain.StateHold, Event: domain.EventPlaceHold, ActorType: domain.ActorCustomer, ActorID: "user_1"},
		},
	}}
	svc := newTestService(repo, logRepo)
	// Состояние в базе ушло дальше журнала
	storedBooking(repo, "bk_1", "user_1", domain.StateConfirmed)

	_, err := svc.History(context.Background(), "bk_1")
	assert.ErrorIs(t, err, ErrHistoryDiverged)
}

func TestService_History_BrokenChain(t *testing.T) {
	repo := newFakeBookingRepo()
	logRepo := &fakeLogRepo{records: map[string][]*domain.TransitionRecord{
		"bk_1": {
			{BookingID: "bk_1", FromState: domain.StateHold, ToState: domain.StatePendingProvider, Event: domain.EventPaymentAuthorized, ActorType: domain.ActorCustomer, ActorID: "user_1"},
		},
	}}
	svc := newTestService(repo, logRepo)
	storedBooking(repo, "bk_1", "user_1", domain.StatePendingProvider)

	_, err := svc.History(context.Background(), "bk_1")
	assert.ErrorIs(t, err, ErrHistoryDiverged)
}

func TestService_GetUserBookings_FiltersByState(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, nil)
	storedBooking(repo, "bk_1", "user_1", domain.StateDraft)
	storedBooking(repo, "bk_2", "user_1", domain.StateConfirmed)
	storedBooking(repo, "bk_3", "user_2", domain.StateDraft)

	state := string(domain.StateConfirmed)
	resp, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		CustomerID: "user_1",
		State:      &state,
	})
	require.NoError(t, err)

	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "bk_2", resp.Bookings[0].ID)
}

func TestService_GetUserBookings_InvalidStateFilter(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), nil)

	state := "nonsense"
	_, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		CustomerID: "user_1",
		State:      &state,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_GetResourceBookings_HidesTerminal(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, nil)
	storedBooking(repo, "bk_1", "user_1", domain.StateConfirmed)
	storedBooking(repo, "bk_2", "user_2", domain.StateRefundedFull)

	resp, err := svc.GetResourceBookings(context.Background(), &models.GetResourceBookingsRequest{
		ResourceID: "res_1",
	})
	require.NoError(t, err)

	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "bk_1", resp.Bookings[0].ID)
}

func TestService_GetResourceBookings_RepositoryError(t *testing.T) {
	repo := newFakeBookingRepo()
	repo.listErr = errors.New("connection refused")
	svc := newTestService(repo, nil)

	_, err := svc.GetResourceBookings(context.Background(), &models.GetResourceBookingsRequest{
		ResourceID: "res_1",
	})
	assert.ErrorIs(t, err, ErrInternal)
}
