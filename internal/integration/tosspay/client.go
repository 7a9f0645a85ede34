// Package tosspay содержит клиент платежного провайдера.
//
// Провайдер работает через полностраничный редирект: сервис создает
// платеж и получает URL страницы оплаты, браузер уходит на нее, а
// исход становится известен только после возврата на success/fail URL.
// Синхронные отказы провайдера (до редиректа) возвращаются ошибкой.
package tosspay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// Client представляет клиент для работы с API платежного провайдера
type Client struct {
	baseURL    string
	secretKey  string
	successURL string
	failURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// Config конфигурация для клиента платежного провайдера
type Config struct {
	BaseURL    string
	SecretKey  string
	SuccessURL string
	FailURL    string
}

// NewClient создает новый клиент платежного провайдера
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		successURL: cfg.SuccessURL,
		failURL:    cfg.FailURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// authHeader собирает заголовок Basic авторизации из секретного ключа
func (c *Client) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.secretKey+":"))
}

// errorResponse тело ошибки провайдера
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// postJSON выполняет POST запрос к провайдеру
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewExternalServiceError("tosspay", "request_failed", "failed to execute request", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			envelope.Message = resp.Status
		}
		c.log.Warn("Payment provider returned %d for %s: %s", resp.StatusCode, path, envelope.Message)
		return domain.NewExternalServiceError("tosspay", envelope.Code, envelope.Message, resp.StatusCode, nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
