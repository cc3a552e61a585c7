package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
	"github.com/yourusername/mastery-api/internal/service"
)

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{service.ErrProgressNotFound, http.StatusNotFound},
		{service.ErrInvalidAnswerIndex, http.StatusUnprocessableEntity},
		{fmt.Errorf("save: %w", apperrors.ErrConflict), http.StatusConflict},
		{apperrors.ErrUnavailable, http.StatusServiceUnavailable},
		{apperrors.ErrExpiredToken, http.StatusUnauthorized},
		{apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{apperrors.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		status, _ := StatusFor(tc.err)
		assert.Equal(t, tc.status, status, "Ошибка %v", tc.err)
	}
}

func respond(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondError(c, "Test", err)
	return w
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	w := respond(errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestRespondError_RetryAfterOnUnavailable(t *testing.T) {
	w := respond(fmt.Errorf("%w: too many write conflicts", apperrors.ErrUnavailable))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRespondError_ImportRows(t *testing.T) {
	err := &service.ImportError{Rows: []service.RowError{{Row: 4, Message: "options must not be empty"}}}

	w := respond(err)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		ErrorType string             `json:"error_type"`
		Rows      []service.RowError `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.ErrorType)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, 4, body.Rows[0].Row)
}
