package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, неверные учётные данные).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда токен истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния: дубликаты уникальных полей
	// и несовпадение версии при оптимистичной записи прогресса.
	ErrConflict = errors.New("resource state conflict")

	// ErrUnavailable используется, когда хранилище недоступно или повторные попытки записи исчерпаны.
	// Вызывающая сторона может безопасно повторить запрос.
	ErrUnavailable = errors.New("service temporarily unavailable")
)
