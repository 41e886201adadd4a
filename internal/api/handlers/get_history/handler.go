package get_history

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-LifecycleService/internal/api/handlers"
	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings"
)

const (
	msgBookingNotFound = "бронирование не найдено"
	msgHistoryDiverged = "журнал переходов повреждён"
)

type Handler struct {
	service BookingsService
	logger  Logger
}

func NewHandler(service BookingsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings/{id}/history
// Журнал переходов в порядке применения
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	result, err := h.service.History(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /bookings/%s/history - Booking not found", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, bookings.ErrHistoryDiverged):
			h.logger.Error("GET /bookings/%s/history - History diverged from current state", bookingID)
			handlers.RespondError(w, http.StatusInternalServerError, msgHistoryDiverged)

		default:
			h.logger.Error("GET /bookings/%s/history - Failed: %v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
