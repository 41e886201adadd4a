package holds

import "errors"

var (
	// ErrHoldConflict возвращается, когда слот уже удержан или забронирован
	ErrHoldConflict = errors.New("holds: slot is already held")

	// ErrHoldNotFound возвращается, когда удержание не найдено или уже уничтожено
	ErrHoldNotFound = errors.New("holds: hold not found")

	// ErrHoldExpired возвращается при попытке конвертировать удержание с истёкшим TTL
	ErrHoldExpired = errors.New("holds: hold has expired")

	// ErrHoldConverted возвращается при попытке освободить конвертированное удержание
	ErrHoldConverted = errors.New("holds: hold has been converted")

	// ErrHoldOwnerMismatch возвращается при конвертации чужого удержания
	ErrHoldOwnerMismatch = errors.New("holds: hold belongs to another booking")

	// ErrInvalidSlot возвращается при некорректном слоте
	ErrInvalidSlot = errors.New("holds: invalid slot")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("holds: internal error")
)
