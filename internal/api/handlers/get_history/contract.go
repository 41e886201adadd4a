package get_history

import (
	"context"

	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
)

type BookingsService interface {
	History(ctx context.Context, id string) (*models.HistoryResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
