package helper

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
	"github.com/yourusername/mastery-api/internal/service"
)

// StatusFor возвращает HTTP-статус для ошибки сервиса и её тип для поля error_type
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperrors.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, apperrors.ErrExpiredToken):
		return http.StatusUnauthorized, "token_expired"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}

// RespondError отправляет ответ с ошибкой сервиса. Внутренние ошибки не раскрываются клиенту.
func RespondError(c *gin.Context, component string, err error) {
	status, errorType := StatusFor(err)

	if status >= http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", component, c.Request.Method, c.FullPath(), err)
	}

	switch status {
	case http.StatusInternalServerError:
		c.JSON(status, gin.H{"error": "Internal server error", "error_type": errorType})
		return
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", "1")
		c.JSON(status, gin.H{"error": "Service temporarily unavailable, please retry", "error_type": errorType})
		return
	}

	body := gin.H{"error": err.Error(), "error_type": errorType}
	var importErr *service.ImportError
	if errors.As(err, &importErr) {
		body["rows"] = importErr.Rows
	}
	c.JSON(status, body)
}

// RespondBadRequest отправляет ответ на некорректное тело запроса
func RespondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error(), "error_type": "bad_request"})
}
