package repository

import "errors"

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrInvalidData неверные данные
	ErrInvalidData = errors.New("invalid data")
)
