package holds

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
)

// HoldRepository интерфейс репозитория удержаний
type HoldRepository interface {
	Create(ctx context.Context, h *domain.Hold) (*domain.Hold, error)
	GetByID(ctx context.Context, id string) (*domain.Hold, error)
	ListBlockingOverlapping(ctx context.Context, resourceID string, slot domain.Slot, now time.Time) ([]*domain.Hold, error)
	UpdateStatus(ctx context.Context, id string, status domain.HoldStatus, ownerRef *string, releaseReason *string) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
