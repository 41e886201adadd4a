package notifyservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Шаблоны уведомлений, известные сервису уведомлений
const (
	TemplateBookingRequested = "booking_requested"
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingCanceled  = "booking_canceled"
	TemplateBookingReminder  = "booking_reminder"
	TemplateReviewRequest    = "review_request"
	TemplateRefundIssued     = "refund_issued"
	TemplateOperatorAlert    = "operator_alert"
)

// OperatorRecipient получатель алертов для дежурных операторов
const OperatorRecipient = "ops"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент сервиса уведомлений
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса уведомлений
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type notifyRequest struct {
	Recipient string                 `json:"recipient"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Notify отправляет уведомление получателю по шаблону
func (c *Client) Notify(ctx context.Context, recipient, template string, data map[string]interface{}) error {
	url := fmt.Sprintf("%s/v1/notifications", c.baseURL)

	body, err := json.Marshal(notifyRequest{
		Recipient: recipient,
		Template:  template,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return ErrRecipientNotFound
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}
}
