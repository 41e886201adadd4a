package reconciler

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/usecase/send_event"
)

// HoldSweeper помечает истёкшие удержания
type HoldSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// BookingRepository доступ к просроченным бронированиям
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListOverdue(ctx context.Context, state domain.BookingState, before time.Time, limit uint64) ([]*domain.Booking, error)
}

// TransitionLogRepository ретеншн журнала переходов
type TransitionLogRepository interface {
	SweepRetention(ctx context.Context, before time.Time) (int64, error)
}

// EffectJournal журнал неудавшихся side-эффектов
type EffectJournal interface {
	ListDue(ctx context.Context, now time.Time, limit uint64) ([]*domain.EffectFailure, error)
	Resolve(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, attempts int, nextRetryAt time.Time, reason string) error
}

// EffectApplier повторное применение одного side-эффекта
type EffectApplier interface {
	Apply(ctx context.Context, b *domain.Booking, kind domain.EffectKind, metadata domain.Metadata) error
}

// EventSender движок переходов для системных событий
type EventSender interface {
	Execute(ctx context.Context, req *send_event.Request) (*send_event.Response, error)
}

// Metrics счетчики фоновых проходов
type Metrics interface {
	AddSweep(kind string, n float64)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
