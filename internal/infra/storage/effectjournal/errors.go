package effectjournal

import "errors"

var (
	// ErrFailureNotFound возвращается, когда запись об отказе не найдена
	ErrFailureNotFound = errors.New("effectjournal.repository: failure record not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("effectjournal.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("effectjournal.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("effectjournal.repository: failed to scan row")
)
