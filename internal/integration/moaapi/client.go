// Package moaapi содержит HTTP клиент основного MoA backend.
// Backend владеет каталогом продуктов, жизненным циклом пати и
// выпуском платежных ключей; этот сервис лишь оркестрирует шаги
// чекаута поверх его API.
package moaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

// Client представляет клиент для работы с API MoA backend
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logger.Logger
}

// Config конфигурация для клиента MoA backend
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewClient создает новый клиент MoA backend
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// errorEnvelope представляет тело ошибки MoA backend
type errorEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// doJSON выполняет запрос к backend и декодирует JSON ответ в out.
// userID прокидывается заголовком X-User-Id: backend авторизует
// операции от имени пользователя, а не сервиса.
func (c *Client) doJSON(ctx context.Context, method, path, userID string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewExternalServiceError("moa-api", "request_failed", "failed to execute request", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			envelope.Message = resp.Status
		}
		c.log.Warn("MoA API returned %d for %s %s: %s", resp.StatusCode, method, path, envelope.Message)
		return domain.NewExternalServiceError("moa-api", envelope.Code, envelope.Message, resp.StatusCode, nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
