package paymentgateway

import "errors"

var (
	// ErrReferenceNotFound возвращается, когда платёжная ссылка неизвестна шлюзу
	ErrReferenceNotFound = errors.New("payment reference not found")

	// ErrPaymentDeclined возвращается при отказе шлюза провести операцию
	ErrPaymentDeclined = errors.New("payment operation declined")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paymentgateway client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("paymentgateway client: invalid response")
)
