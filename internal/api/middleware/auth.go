// Package middleware HTTP middleware: идентификация актора и метрики
package middleware

import (
	"context"
	"net/http"

	"github.com/m04kA/SMC-LifecycleService/internal/api/handlers"
	"github.com/m04kA/SMC-LifecycleService/internal/domain"
)

type contextKey string

const (
	actorContextKey contextKey = "actor"

	headerUserID    = "X-User-ID"
	headerActorType = "X-Actor-Type"
)

const (
	msgMissingUserID    = "заголовок X-User-ID обязателен"
	msgInvalidActorType = "некорректный тип актора, ожидается customer, provider или admin"
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Auth извлекает актора из заголовков запроса
// Тип актора по умолчанию customer; system в HTTP-запросах запрещён,
// системные события порождает только внутренний реконсилер
func Auth(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(headerUserID)
			if userID == "" {
				logger.Warn("Auth: missing %s header for %s %s", headerUserID, r.Method, r.URL.Path)
				handlers.RespondUnauthorized(w, msgMissingUserID)
				return
			}

			actorType := domain.ActorCustomer
			if raw := r.Header.Get(headerActorType); raw != "" {
				parsed, err := domain.ParseActorType(raw)
				if err != nil || parsed == domain.ActorSystem {
					logger.Warn("Auth: invalid actor type %q for %s %s", raw, r.Method, r.URL.Path)
					handlers.RespondBadRequest(w, msgInvalidActorType)
					return
				}
				actorType = parsed
			}

			actor := domain.Actor{Type: actorType, ID: userID}
			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext возвращает актора, положенного Auth middleware
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	return actor, ok
}
