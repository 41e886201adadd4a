package send_event

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-LifecycleService/internal/api/handlers"
	"github.com/m04kA/SMC-LifecycleService/internal/api/middleware"
	sendEvent "github.com/m04kA/SMC-LifecycleService/internal/usecase/send_event"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnknownEvent       = "неизвестное событие"
	msgUnauthorized       = "пользователь не аутентифицирован"
	msgBookingNotFound    = "бронирование не найдено"
	msgInvalidTransition  = "переход недопустим из текущего состояния"
	msgGuardFailed        = "предусловие перехода не выполнено"
	msgTerminalState      = "бронирование в терминальном состоянии"
	msgSlotHeld           = "слот уже удержан или забронирован"
)

type Handler struct {
	useCase SendEventUseCase
	service BookingsService
	logger  Logger
}

func NewHandler(useCase SendEventUseCase, service BookingsService, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{id}/events
// Единственная мутирующая точка входа жизненного цикла
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req SendEventRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/%s/events - Invalid request body: %v", bookingID, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(bookingID, actor)
	if err != nil {
		h.logger.Warn("POST /bookings/%s/events - Unknown event %q", bookingID, req.Event)
		handlers.RespondBadRequest(w, msgUnknownEvent)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, sendEvent.ErrInvalidInput):
			h.logger.Warn("POST /bookings/%s/events - Invalid input: %v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, sendEvent.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/%s/events - Booking not found", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, sendEvent.ErrInvalidTransition):
			h.logger.Warn("POST /bookings/%s/events - Invalid transition: event=%s actor=%s/%s",
				bookingID, req.Event, actor.Type, actor.ID)
			h.respondRejected(w, r.Context(), bookingID, http.StatusConflict, msgInvalidTransition)

		case errors.Is(err, sendEvent.ErrTerminalState):
			h.logger.Warn("POST /bookings/%s/events - Terminal state: event=%s", bookingID, req.Event)
			h.respondRejected(w, r.Context(), bookingID, http.StatusConflict, msgTerminalState)

		case errors.Is(err, sendEvent.ErrGuardFailed):
			h.logger.Warn("POST /bookings/%s/events - Guard failed: event=%s actor=%s/%s: %v",
				bookingID, req.Event, actor.Type, actor.ID, err)
			h.respondRejected(w, r.Context(), bookingID, http.StatusUnprocessableEntity, msgGuardFailed)

		case errors.Is(err, sendEvent.ErrHoldConflict):
			h.logger.Warn("POST /bookings/%s/events - Hold conflict: event=%s", bookingID, req.Event)
			handlers.RespondConflict(w, msgSlotHeld)

		default:
			h.logger.Error("POST /bookings/%s/events - Failed: event=%s, error=%v", bookingID, req.Event, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/%s/events - Transitioned %s -> %s on %s",
		bookingID, result.PreviousState, result.NewState, req.Event)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// respondRejected прикладывает к отказу текущее состояние и допустимые события
func (h *Handler) respondRejected(w http.ResponseWriter, ctx context.Context, bookingID string, status int, message string) {
	available, err := h.service.AvailableEvents(ctx, bookingID)
	if err != nil {
		handlers.RespondError(w, status, message)
		return
	}
	handlers.RespondTransitionError(w, status, message, available.State, available.Events)
}
