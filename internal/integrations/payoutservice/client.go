package payoutservice

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

// Client клиент планировщика выплат провайдерам
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента планировщика выплат
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type scheduleRequest struct {
	BookingID string  `json:"bookingId"`
	Amount    float64 `json:"amount"`
	AfterDays int     `json:"afterDays"`
}

// Schedule планирует выплату провайдеру через afterDays дней
// Выплата ключуется bookingId на стороне планировщика: повторный вызов
// для того же бронирования не создаёт вторую выплату (409 трактуется как успех)
func (c *Client) Schedule(ctx context.Context, bookingID string, amount float64, afterDays int) error {
	url := fmt.Sprintf("%s/v1/payouts", c.baseURL)

	body, err := json.Marshal(scheduleRequest{
		BookingID: bookingID,
		Amount:    amount,
		AfterDays: afterDays,
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
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		// Выплата уже запланирована - идемпотентный успех
		c.log.Info("Payout already scheduled for booking_id=%s", bookingID)
		return nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}
}
