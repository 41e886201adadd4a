package notifyservice

import "errors"

var (
	// ErrRecipientNotFound возвращается, когда получатель неизвестен сервису уведомлений
	ErrRecipientNotFound = errors.New("notification recipient not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("notifyservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("notifyservice client: invalid response")
)
