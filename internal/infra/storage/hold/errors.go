package hold

import "errors"

var (
	// ErrHoldNotFound возвращается, когда удержание не найдено
	ErrHoldNotFound = errors.New("hold.repository: hold not found")

	// ErrSlotTaken возвращается при нарушении уникального индекса живых удержаний
	// Страховка на уровне схемы: два одинаковых слота не могут быть удержаны дважды
	ErrSlotTaken = errors.New("hold.repository: slot already held")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("hold.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("hold.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("hold.repository: failed to scan row")
)
