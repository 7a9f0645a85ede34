package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput неверные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInvalidStep операция недопустима на текущем шаге чекаута
	ErrInvalidStep = errors.New("operation not allowed at current step")

	// ErrPaymentInFlight редирект на оплату уже запрошен и не завершен
	ErrPaymentInFlight = errors.New("payment redirect already in flight")

	// ErrCheckoutCompleted чекаут уже завершен
	ErrCheckoutCompleted = errors.New("checkout already completed")

	// ErrResumeFailed не удалось восстановить чекаут после редиректа
	ErrResumeFailed = errors.New("checkout resumption failed")

	// ErrSessionNotFound запись восстанавливаемой сессии отсутствует
	ErrSessionNotFound = errors.New("resumable session not found")

	// ErrPartyNotFound пати не найдена
	ErrPartyNotFound = errors.New("party not found")

	// ErrProductNotFound продукт не найден в каталоге
	ErrProductNotFound = errors.New("product not found")

	// ErrPaymentFailed платеж не прошел
	ErrPaymentFailed = errors.New("payment failed")

	// ErrExternalServiceUnavailable внешний сервис недоступен
	ErrExternalServiceUnavailable = errors.New("external service unavailable")
)

// CheckoutError представляет ошибку чекаута
type CheckoutError struct {
	Code        string
	Message     string
	CheckoutID  string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *CheckoutError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("checkout error [%s]: %s: %v (checkout_id: %s)", e.Code, e.Message, e.OriginalErr, e.CheckoutID)
	}
	return fmt.Sprintf("checkout error [%s]: %s (checkout_id: %s)", e.Code, e.Message, e.CheckoutID)
}

// Unwrap возвращает оригинальную ошибку
func (e *CheckoutError) Unwrap() error {
	return e.OriginalErr
}

// NewCheckoutError создает новую ошибку чекаута
func NewCheckoutError(code, message, checkoutID string, err error) *CheckoutError {
	return &CheckoutError{
		Code:        code,
		Message:     message,
		CheckoutID:  checkoutID,
		OriginalErr: err,
	}
}

// ExternalServiceError представляет ошибку внешнего сервиса
type ExternalServiceError struct {
	Service     string
	Code        string
	Message     string
	StatusCode  int
	OriginalErr error
}

// Error реализует интерфейс error
func (e *ExternalServiceError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s service error [%s]: %s: %v", e.Service, e.Code, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s service error [%s]: %s", e.Service, e.Code, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *ExternalServiceError) Unwrap() error {
	return e.OriginalErr
}

// Is позволяет сопоставлять ошибку внешнего сервиса с ErrExternalServiceUnavailable
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalServiceUnavailable
}

// NewExternalServiceError создает новую ошибку внешнего сервиса
func NewExternalServiceError(service, code, message string, statusCode int, err error) *ExternalServiceError {
	return &ExternalServiceError{
		Service:     service,
		Code:        code,
		Message:     message,
		StatusCode:  statusCode,
		OriginalErr: err,
	}
}

// NotFoundError представляет ошибку "не найдено"
type NotFoundError struct {
	Entity string
	ID     string
}

// Error реализует интерфейс error
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is проверяет, является ли ошибка ошибкой типа "не найдено"
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError создает новую ошибку "не найдено"
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}
