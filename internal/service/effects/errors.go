package effects

import "errors"

var (
	// ErrNoPaymentReference возвращается, когда эффект требует платёжную ссылку,
	// а у бронирования её нет
	ErrNoPaymentReference = errors.New("effects: booking has no payment reference")

	// ErrNoRefundAmount возвращается, когда сумма возврата не определима
	ErrNoRefundAmount = errors.New("effects: refund amount is not defined")

	// ErrUnknownEffect возвращается для эффекта, неизвестного диспетчеру
	ErrUnknownEffect = errors.New("effects: unknown effect kind")
)
