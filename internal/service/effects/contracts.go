package effects

import (
	"context"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/integrations/paymentgateway"
)

// PaymentGateway интерфейс платёжного шлюза
type PaymentGateway interface {
	Capture(ctx context.Context, reference string, amount float64) (*paymentgateway.OperationResult, error)
	Refund(ctx context.Context, reference string, amount float64) (*paymentgateway.OperationResult, error)
}

// NotificationService интерфейс сервиса уведомлений
type NotificationService interface {
	Notify(ctx context.Context, recipient, template string, data map[string]interface{}) error
}

// PayoutScheduler интерфейс планировщика выплат
type PayoutScheduler interface {
	Schedule(ctx context.Context, bookingID string, amount float64, afterDays int) error
}

// EffectJournal журнал отказов для out-of-band повторов
type EffectJournal interface {
	Record(ctx context.Context, f *domain.EffectFailure) error
}

// Metrics счетчики отказов side-эффектов
type Metrics interface {
	IncSideEffectFailure(effect string)
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
