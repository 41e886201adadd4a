package bookings

import (
	"context"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID string, state *domain.BookingState) ([]*domain.Booking, error)
	ListByResource(ctx context.Context, filter domain.ResourceBookingsFilter) ([]*domain.Booking, error)
}

// TransitionLogRepository интерфейс журнала переходов
type TransitionLogRepository interface {
	HistoryFor(ctx context.Context, bookingID string) ([]*domain.TransitionRecord, error)
}

// TransitionTable интерфейс таблицы переходов
type TransitionTable interface {
	AvailableEvents(state domain.BookingState) []domain.Event
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
