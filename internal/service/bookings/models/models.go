package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/pkg/types"
)

var (
	// ErrInvalidState возвращается при некорректном состоянии в фильтре
	ErrInvalidState = errors.New("invalid booking state")

	// ErrInvalidDate возвращается при некорректной дате слота
	ErrInvalidDate = errors.New("invalid slot date")
)

// Request модели

// CreateBookingRequest запрос на создание черновика бронирования
type CreateBookingRequest struct {
	ResourceID string `json:"resourceId"`
	SlotDate   string `json:"slotDate"`  // "2026-01-12"
	StartTime  string `json:"startTime"` // "10:00"
	EndTime    string `json:"endTime"`   // "11:00"
}

// ToDomainSlot конвертирует request в domain слот
func (r *CreateBookingRequest) ToDomainSlot() (*domain.Slot, error) {
	date, err := time.Parse(domain.DateFormat, r.SlotDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	slot := &domain.Slot{
		Date:  date,
		Start: types.TimeString(r.StartTime),
		End:   types.TimeString(r.EndTime),
	}
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	return slot, nil
}

// GetUserBookingsRequest запрос на получение бронирований клиента
type GetUserBookingsRequest struct {
	CustomerID string  `json:"customerId"`
	State      *string `json:"state,omitempty"`
}

// GetResourceBookingsRequest запрос на расписание ресурса
type GetResourceBookingsRequest struct {
	ResourceID      string     `json:"resourceId"`
	StartDate       *time.Time `json:"startDate,omitempty"`       // Начало периода (опционально)
	EndDate         *time.Time `json:"endDate,omitempty"`         // Конец периода (опционально)
	State           *string    `json:"state,omitempty"`           // Фильтр по состоянию (опционально)
	IncludeTerminal bool       `json:"includeTerminal,omitempty"` // Включить терминальные бронирования
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetResourceBookingsRequest) ToDomainFilter() (domain.ResourceBookingsFilter, error) {
	filter := domain.ResourceBookingsFilter{
		ResourceID:      r.ResourceID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeTerminal: r.IncludeTerminal,
	}

	if r.State != nil {
		state, err := ToDomainState(*r.State)
		if err != nil {
			return filter, err
		}
		filter.State = &state
	}

	return filter, nil
}

// Response модели

// PaymentResponse платёжные данные бронирования
type PaymentResponse struct {
	Amount           float64 `json:"amount"`
	PlatformFee      float64 `json:"platformFee"`
	PayoutAmount     float64 `json:"payoutAmount"`
	GatewayReference string  `json:"gatewayReference"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID         string `json:"id"`
	ResourceID string `json:"resourceId"`
	CustomerID string `json:"customerId"`
	State      string `json:"state"`

	SlotDate  string `json:"slotDate,omitempty"`  // "2026-01-12"
	StartTime string `json:"startTime,omitempty"` // "10:00"
	EndTime   string `json:"endTime,omitempty"`   // "11:00"

	Payment *PaymentResponse `json:"payment,omitempty"`
	HoldID  *string          `json:"holdId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// AvailableEventsResponse события, допустимые из текущего состояния
type AvailableEventsResponse struct {
	BookingID string   `json:"bookingId"`
	State     string   `json:"state"`
	Events    []string `json:"events"`
}

// TransitionEntry одна запись журнала переходов
type TransitionEntry struct {
	ID         int64           `json:"id"`
	FromState  string          `json:"fromState"`
	ToState    string          `json:"toState"`
	Event      string          `json:"event"`
	ActorType  string          `json:"actorType"`
	ActorID    string          `json:"actorId"`
	Metadata   domain.Metadata `json:"metadata,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// HistoryResponse журнал переходов бронирования
type HistoryResponse struct {
	BookingID   string            `json:"bookingId"`
	Transitions []TransitionEntry `json:"transitions"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:         b.ID,
		ResourceID: b.ResourceID,
		CustomerID: b.CustomerID,
		State:      string(b.CurrentState),
		HoldID:     b.HoldID,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}

	if b.Slot != nil {
		resp.SlotDate = b.Slot.Date.Format(domain.DateFormat)
		resp.StartTime = b.Slot.Start.String()
		resp.EndTime = b.Slot.End.String()
	}

	if b.Payment != nil {
		resp.Payment = &PaymentResponse{
			Amount:           b.Payment.Amount,
			PlatformFee:      b.Payment.PlatformFee,
			PayoutAmount:     b.Payment.PayoutAmount,
			GatewayReference: b.Payment.GatewayReference,
		}
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	if bookings == nil {
		return &BookingListResponse{
			Bookings: []BookingResponse{},
		}
	}

	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, len(bookings)),
	}

	for i, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings[i] = *bookingResp
		}
	}

	return resp
}

// FromDomainHistory конвертирует записи журнала в DTO
func FromDomainHistory(bookingID string, records []*domain.TransitionRecord) *HistoryResponse {
	resp := &HistoryResponse{
		BookingID:   bookingID,
		Transitions: make([]TransitionEntry, len(records)),
	}

	for i, rec := range records {
		resp.Transitions[i] = TransitionEntry{
			ID:         rec.ID,
			FromState:  string(rec.FromState),
			ToState:    string(rec.ToState),
			Event:      string(rec.Event),
			ActorType:  string(rec.ActorType),
			ActorID:    rec.ActorID,
			Metadata:   rec.Metadata,
			OccurredAt: rec.CreatedAt,
		}
	}

	return resp
}

// ToDomainState конвертирует строку в domain.BookingState с валидацией
func ToDomainState(state string) (domain.BookingState, error) {
	s, err := domain.ParseBookingState(state)
	if err != nil {
		return "", ErrInvalidState
	}
	return s, nil
}
