package send_event

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/statemachine"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	UpdateState(ctx context.Context, id string, state domain.BookingState) error
	AttachHold(ctx context.Context, id string, holdID *string) error
	SetPayment(ctx context.Context, id string, payment *domain.Payment) error
}

// TransitionLogRepository интерфейс журнала переходов
type TransitionLogRepository interface {
	Append(ctx context.Context, rec *domain.TransitionRecord) error
}

// HoldManager интерфейс менеджера удержаний слотов
type HoldManager interface {
	PlaceHold(ctx context.Context, resourceID string, slot domain.Slot, ownerRef string, ttl time.Duration) (*domain.Hold, error)
	Convert(ctx context.Context, holdID, bookingID string) error
	Release(ctx context.Context, holdID, reason string) error
	ReleaseForBooking(ctx context.Context, holdID, bookingID, reason string) error
}

// EffectDispatcher интерфейс диспетчера side-эффектов
type EffectDispatcher interface {
	Dispatch(ctx context.Context, b *domain.Booking, from, to domain.BookingState, event domain.Event, metadata domain.Metadata) []domain.EffectResult
}

// TransitionTable интерфейс таблицы переходов
type TransitionTable interface {
	Resolve(from domain.BookingState, event domain.Event) (statemachine.Rule, bool)
	AvailableEvents(state domain.BookingState) []domain.Event
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчики переходов и конфликтов
type Metrics interface {
	IncTransition(event, result string)
	IncHoldConflict()
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
