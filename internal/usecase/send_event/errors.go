package send_event

import "errors"

// Таксономия ошибок движка переходов
// Клиентские ошибки (ErrInvalidTransition, ErrGuardFailed, ErrTerminalState,
// ErrHoldConflict) не повторяются и означают, что мутаций не было;
// ErrPersistence — повторяемая серверная ошибка, коммит не состоялся
var (
	// ErrInvalidTransition возвращается, когда для пары (state, event) нет правила
	ErrInvalidTransition = errors.New("send_event: no transition rule for (state, event)")

	// ErrGuardFailed возвращается, когда правило есть, но предусловие не выполнено
	ErrGuardFailed = errors.New("send_event: transition guard failed")

	// ErrTerminalState возвращается при попытке перехода из терминального состояния
	ErrTerminalState = errors.New("send_event: booking is in a terminal state")

	// ErrHoldConflict возвращается, когда слот уже удержан или забронирован
	// Вызывающий может предложить клиенту альтернативные слоты
	ErrHoldConflict = errors.New("send_event: slot is already held")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("send_event: booking not found")

	// ErrPersistence возвращается при отказе атомарного коммита
	// Частичных эффектов нет: размещённое в этой попытке удержание компенсировано
	ErrPersistence = errors.New("send_event: failed to persist transition")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("send_event: invalid input data")
)
