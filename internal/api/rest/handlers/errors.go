package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moa-platform/checkout-service/internal/domain"
	"github.com/moa-platform/checkout-service/internal/repository"
)

// statusFromError выводит HTTP статус из доменной ошибки
func statusFromError(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrPartyNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPaymentInFlight),
		errors.Is(err, domain.ErrCheckoutCompleted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrExternalServiceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userID извлекает ID пользователя из заголовка запроса.
// Аутентификацию выполняет вышестоящий gateway; здесь доверяем заголовку.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-Id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-Id header is required"})
		return "", false
	}
	return id, true
}
