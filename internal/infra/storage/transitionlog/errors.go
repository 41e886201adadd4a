package transitionlog

import "errors"

var (
	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("transitionlog.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("transitionlog.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("transitionlog.repository: failed to scan row")

	// ErrMarshalMetadata возвращается при ошибке сериализации metadata_json
	ErrMarshalMetadata = errors.New("transitionlog.repository: failed to marshal metadata")
)
