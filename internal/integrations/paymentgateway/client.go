package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент платёжного шлюза
// Шлюз непрозрачен: сервис знает только операции authorize/capture/refund
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента платёжного шлюза
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Authorize авторизует платёж по ссылке
func (c *Client) Authorize(ctx context.Context, reference string, amount float64) (*OperationResult, error) {
	return c.post(ctx, "authorize", reference, amount, "auth:"+reference)
}

// Capture списывает ранее авторизованный платёж
// Ключ идемпотентности по ссылке: повторное списание не дублируется
func (c *Client) Capture(ctx context.Context, reference string, amount float64) (*OperationResult, error) {
	return c.post(ctx, "capture", reference, amount, "capture:"+reference)
}

// Refund возвращает средства по ранее списанному платежу
func (c *Client) Refund(ctx context.Context, reference string, amount float64) (*OperationResult, error) {
	return c.post(ctx, "refund", reference, amount, fmt.Sprintf("refund:%s:%.2f", reference, amount))
}

func (c *Client) post(ctx context.Context, operation, reference string, amount float64, idempotencyKey string) (*OperationResult, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, operation)

	body, err := json.Marshal(operationRequest{
		Reference:      reference,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return nil, ErrReferenceNotFound
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		c.log.Warn("PaymentGateway declined %s for reference=%s amount=%.2f", operation, reference, amount)
		return nil, ErrPaymentDeclined
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	var result OperationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &result, nil
}
