package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или документ не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный или просроченный токен).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда аккаунт пытается получить доступ к чужим данным.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, повторный запуск
	// операции, которая уже выполняется для этого аккаунта).
	ErrConflict = errors.New("resource state conflict")
)
