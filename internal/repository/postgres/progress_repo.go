package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

// ProgressRepo реализует repository.ProgressRepository
type ProgressRepo struct {
	db *gorm.DB
}

// NewProgressRepo создает новый репозиторий прогресса
func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Create создает пустую запись прогресса студента
func (r *ProgressRepo) Create(ctx context.Context, progress *entity.StudentProgress) error {
	if progress.Topics == nil {
		progress.Topics = entity.TopicProgressMap{}
	}
	return translateError(r.db.WithContext(ctx).Create(progress).Error)
}

// GetByStudentID возвращает запись прогресса студента
func (r *ProgressRepo) GetByStudentID(ctx context.Context, studentID uint) (*entity.StudentProgress, error) {
	var progress entity.StudentProgress
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&progress).Error
	if err != nil {
		return nil, translateError(err)
	}
	if progress.Topics == nil {
		progress.Topics = entity.TopicProgressMap{}
	}
	return &progress, nil
}

// Save атомарно записывает весь словарь тем, если версия в базе равна expectedVersion.
// Условный UPDATE: 0 затронутых строк означает, что запись изменил конкурентный запрос.
func (r *ProgressRepo) Save(ctx context.Context, progress *entity.StudentProgress, expectedVersion int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entity.StudentProgress{}).
		Where("student_id = ? AND version = ?", progress.StudentID, expectedVersion).
		Updates(map[string]interface{}{
			"topics":     progress.Topics,
			"version":    expectedVersion + 1,
			"updated_at": now,
		})

	if result.Error != nil {
		return fmt.Errorf("save progress for student #%d failed: %w", progress.StudentID, result.Error)
	}

	if result.RowsAffected == 0 {
		log.Printf("[ProgressRepo] Версия прогресса студента #%d изменилась (ожидалась %d)", progress.StudentID, expectedVersion)
		return fmt.Errorf("%w: student #%d progress version %d", apperrors.ErrConflict, progress.StudentID, expectedVersion)
	}

	progress.Version = expectedVersion + 1
	progress.UpdatedAt = now
	return nil
}

// List возвращает записи прогресса всех студентов
func (r *ProgressRepo) List(ctx context.Context) ([]entity.StudentProgress, error) {
	var list []entity.StudentProgress
	err := r.db.WithContext(ctx).Order("student_id").Find(&list).Error
	return list, err
}
