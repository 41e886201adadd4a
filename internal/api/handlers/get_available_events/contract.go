package get_available_events

import (
	"context"

	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
)

type BookingsService interface {
	AvailableEvents(ctx context.Context, id string) (*models.AvailableEventsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
