package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-LifecycleService/internal/api/handlers"
	"github.com/m04kA/SMC-LifecycleService/internal/api/middleware"
	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings"
	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidSlot        = "некорректный слот: дата YYYY-MM-DD, время HH:MM, начало раньше конца"
	msgUnauthorized       = "пользователь не аутентифицирован"
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

// Handle POST /api/v1/bookings
// Создаёт черновик бронирования; удержание слота происходит
// отдельным событием PLACE_HOLD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req models.CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.CreateDraft(r.Context(), actor.ID, &req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: customer=%s, resource=%s: %v", actor.ID, req.ResourceID, err)
			handlers.RespondBadRequest(w, msgInvalidSlot)

		default:
			h.logger.Error("POST /bookings - Failed to create draft: customer=%s, resource=%s, error=%v",
				actor.ID, req.ResourceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Draft created: booking_id=%s, customer=%s, resource=%s",
		result.ID, actor.ID, req.ResourceID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
