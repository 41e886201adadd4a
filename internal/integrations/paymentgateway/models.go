package paymentgateway

// operationRequest тело запроса операции над платежом
type operationRequest struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	// Ключ идемпотентности: повтор операции с тем же ключом не дублирует её
	IdempotencyKey string `json:"idempotencyKey"`
}

// OperationResult результат операции платёжного шлюза
type OperationResult struct {
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
}

// ErrorResponse модель ошибки от шлюза
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
