package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
)

// Service сервис чтения бронирований и создания черновиков
// Все мутации состояния проходят через движок переходов, здесь их нет
type Service struct {
	bookingRepo BookingRepository
	logRepo     TransitionLogRepository
	table       TransitionTable
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	logRepo TransitionLogRepository,
	table TransitionTable,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		logRepo:     logRepo,
		table:       table,
		logger:      logger,
	}
}

// CreateDraft создает черновик бронирования в начальном состоянии
// Слот фиксируется сразу, но не удерживается: удержание появится
// только после события PLACE_HOLD
func (s *Service) CreateDraft(ctx context.Context, customerID string, req *models.CreateBookingRequest) (*models.BookingResponse, error) {
	if customerID == "" || req.ResourceID == "" {
		return nil, fmt.Errorf("%w: customerId and resourceId are required", ErrInvalidInput)
	}

	slot, err := req.ToDomainSlot()
	if err != nil {
		s.logger.Warn("CreateDraft: invalid slot for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	booking := &domain.Booking{
		ID:           "bk_" + uuid.NewString(),
		ResourceID:   req.ResourceID,
		CustomerID:   customerID,
		CurrentState: domain.InitialState,
		Slot:         slot,
	}

	created, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		s.logger.Error("CreateDraft: repository error for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: CreateDraft - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("CreateDraft: created booking id=%s resource=%s customer=%s", created.ID, created.ResourceID, customerID)
	return models.FromDomainBooking(created), nil
}

// GetByID получает бронирование по ID
func (s *Service) GetByID(ctx context.Context, id string) (*models.BookingResponse, error) {
	booking, err := s.getBooking(ctx, id, "GetByID")
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(booking), nil
}

// AvailableEvents возвращает события, допустимые из текущего состояния
// Для терминальных состояний список пуст
func (s *Service) AvailableEvents(ctx context.Context, id string) (*models.AvailableEventsResponse, error) {
	booking, err := s.getBooking(ctx, id, "AvailableEvents")
	if err != nil {
		return nil, err
	}

	events := s.table.AvailableEvents(booking.CurrentState)
	resp := &models.AvailableEventsResponse{
		BookingID: booking.ID,
		State:     string(booking.CurrentState),
		Events:    make([]string, len(events)),
	}
	for i, e := range events {
		resp.Events[i] = string(e)
	}
	return resp, nil
}

// History возвращает журнал переходов бронирования в порядке применения
// Журнал сверяется с текущим состоянием: воспроизведение записей из
// начального состояния должно давать ровно его
func (s *Service) History(ctx context.Context, id string) (*models.HistoryResponse, error) {
	booking, err := s.getBooking(ctx, id, "History")
	if err != nil {
		return nil, err
	}

	records, err := s.logRepo.HistoryFor(ctx, id)
	if err != nil {
		s.logger.Error("History: log repository error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: History - log repository error: %v", ErrInternal, err)
	}

	replayed, err := domain.ReplayTransitions(records)
	if err != nil || replayed != booking.CurrentState {
		s.logger.Error("History: log diverged for booking id=%s: replayed=%s current=%s err=%v",
			id, replayed, booking.CurrentState, err)
		return nil, fmt.Errorf("%w: booking id=%s", ErrHistoryDiverged, id)
	}

	return models.FromDomainHistory(id, records), nil
}

// GetUserBookings получает бронирования клиента с опциональным фильтром по состоянию
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	if req.CustomerID == "" {
		return nil, fmt.Errorf("%w: customerId is required", ErrInvalidInput)
	}

	var state *domain.BookingState
	if req.State != nil {
		parsed, err := models.ToDomainState(*req.State)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		state = &parsed
	}

	list, err := s.bookingRepo.ListByCustomer(ctx, req.CustomerID, state)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for customer=%s: %v", req.CustomerID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: fetched %d bookings for customer=%s", len(list), req.CustomerID)
	return models.FromDomainBookingList(list), nil
}

// GetResourceBookings получает расписание ресурса за период
// Терминальные бронирования по умолчанию скрыты
func (s *Service) GetResourceBookings(ctx context.Context, req *models.GetResourceBookingsRequest) (*models.BookingListResponse, error) {
	if req.ResourceID == "" {
		return nil, fmt.Errorf("%w: resourceId is required", ErrInvalidInput)
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bookings, err := s.bookingRepo.ListByResource(ctx, filter)
	if err != nil {
		s.logger.Error("GetResourceBookings: repository error for resource=%s: %v", req.ResourceID, err)
		return nil, fmt.Errorf("%w: GetResourceBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetResourceBookings: fetched %d bookings for resource=%s", len(bookings), req.ResourceID)
	return models.FromDomainBookingList(bookings), nil
}

func (s *Service) getBooking(ctx context.Context, id, method string) (*domain.Booking, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%s not found", method, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%s: %v", method, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
	}
	return booking, nil
}
