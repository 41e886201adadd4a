package get_user_bookings

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-LifecycleService/internal/api/handlers"
	"github.com/m04kA/SMC-LifecycleService/internal/api/middleware"
	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings"
	"github.com/m04kA/SMC-LifecycleService/internal/service/bookings/models"
)

const (
	msgUnauthorized = "пользователь не аутентифицирован"
	msgAccessDenied = "доступ к чужим бронированиям запрещён"
	msgInvalidState = "некорректное состояние в фильтре"
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

// Handle GET /api/v1/users/{userId}/bookings?state=confirmed
// Клиент видит только свои бронирования, admin — любые
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	if actor.Type != domain.ActorAdmin && actor.ID != userID {
		h.logger.Warn("GET /users/%s/bookings - Access denied for actor=%s/%s", userID, actor.Type, actor.ID)
		handlers.RespondForbidden(w, msgAccessDenied)
		return
	}

	req := &models.GetUserBookingsRequest{CustomerID: userID}
	if state := r.URL.Query().Get("state"); state != "" {
		req.State = &state
	}

	result, err := h.service.GetUserBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /users/%s/bookings - Invalid input: %v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidState)

		default:
			h.logger.Error("GET /users/%s/bookings - Failed: %v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
