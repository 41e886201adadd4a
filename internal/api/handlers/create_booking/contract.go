package create_booking

import (
	"context"

	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
)

type BookingsService interface {
	CreateDraft(ctx context.Context, customerID string, req *models.CreateBookingRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
