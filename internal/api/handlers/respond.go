// Package handlers общие хелперы HTTP-слоя: декодирование запросов
// и единый формат ответов об ошибках
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse единый формат ошибки API
// Для отклонённых переходов заполняются currentState и availableEvents,
// чтобы клиент мог показать допустимые действия
type ErrorResponse struct {
	Message         string   `json:"message"`
	CurrentState    string   `json:"currentState,omitempty"`
	AvailableEvents []string `json:"availableEvents,omitempty"`
}

// DecodeJSON декодирует тело запроса в dst
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	defer r.Body.Close()

	return json.NewDecoder(r.Body).Decode(dst)
}

// RespondJSON пишет payload как JSON с указанным статусом
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// RespondError пишет ошибку с произвольным статусом
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Message: message})
}

// RespondTransitionError пишет ошибку отклонённого перехода
// вместе с текущим состоянием и допустимыми событиями
func RespondTransitionError(w http.ResponseWriter, status int, message, currentState string, availableEvents []string) {
	RespondJSON(w, status, ErrorResponse{
		Message:         message,
		CurrentState:    currentState,
		AvailableEvents: availableEvents,
	})
}

// RespondBadRequest пишет 400
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

// RespondUnauthorized пишет 401
func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

// RespondForbidden пишет 403
func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

// RespondNotFound пишет 404
func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

// RespondConflict пишет 409
func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

// RespondInternalError пишет 500 без деталей
func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}
