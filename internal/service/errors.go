package service

import (
	"errors"
	"fmt"

	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

// Ошибки сервисов. Каждая оборачивает общую ошибку приложения,
// поэтому обработчики могут проверять как конкретную, так и общую.
var (
	ErrProgressNotFound = fmt.Errorf("%w: student progress not found", apperrors.ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("%w: question not found", apperrors.ErrNotFound)
	ErrTopicNotFound    = fmt.Errorf("%w: topic not found", apperrors.ErrNotFound)
	ErrNoTopics         = fmt.Errorf("%w: no topics found in the course", apperrors.ErrNotFound)

	ErrNoQuestions        = fmt.Errorf("%w: target topic has no questions", apperrors.ErrValidation)
	ErrInvalidAnswerIndex = fmt.Errorf("%w: answer index must be between 0 and 3", apperrors.ErrValidation)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	ErrUsernameTaken      = fmt.Errorf("%w: user already exists", apperrors.ErrConflict)
	ErrDuplicateTopic     = fmt.Errorf("%w: topic with this name or order already exists", apperrors.ErrConflict)
)

// storeError оставляет ошибки таксономии как есть, остальные ошибки хранилища
// помечает как ErrUnavailable: операцию можно безопасно повторить.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, apperrors.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrUnavailable, err)
}
