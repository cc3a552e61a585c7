package repository

import (
	"context"

	"github.com/yourusername/mastery-api/internal/domain/entity"
)

// ProgressRepository определяет методы хранилища прогресса студентов.
// Save выполняет запись с проверкой версии: если версия в хранилище отличается от expectedVersion,
// возвращается apperrors.ErrConflict и ничего не записывается.
type ProgressRepository interface {
	Create(ctx context.Context, progress *entity.StudentProgress) error
	GetByStudentID(ctx context.Context, studentID uint) (*entity.StudentProgress, error)
	Save(ctx context.Context, progress *entity.StudentProgress, expectedVersion int64) error
	List(ctx context.Context) ([]entity.StudentProgress, error)
}
