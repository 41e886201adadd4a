package send_event

import (
	"context"

	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
	sendEvent "github.com/m04kA/SMC-LifecycleService/internal/usecase/send_event"
)

type SendEventUseCase interface {
	Execute(ctx context.Context, req *sendEvent.Request) (*sendEvent.Response, error)
}

// BookingsService нужен, чтобы вернуть клиенту допустимые события
// при отклонённом переходе
type BookingsService interface {
	AvailableEvents(ctx context.Context, id string) (*models.AvailableEventsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
