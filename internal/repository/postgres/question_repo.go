package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return translateError(r.db.WithContext(ctx).Create(question).Error)
}

// CreateBatch создает пакет вопросов в одной транзакции
func (r *QuestionRepo) CreateBatch(ctx context.Context, questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Устанавливаем кодировку UTF-8 внутри транзакции
		if err := tx.Exec("SET CLIENT_ENCODING TO 'UTF8'").Error; err != nil {
			return err
		}
		return translateError(tx.CreateInBatches(&questions, 100).Error)
	})
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// ListByTopic возвращает все вопросы темы, отсортированные по сложности
func (r *QuestionRepo) ListByTopic(ctx context.Context, topicID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("difficulty ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// FindByTopicAndDifficulty возвращает вопрос темы с точной сложностью (наименьший ID).
// Возвращает (nil, nil), если такого вопроса нет.
func (r *QuestionRepo) FindByTopicAndDifficulty(ctx context.Context, topicID uint, difficulty int) (*entity.Question, error) {
	return r.findFirst(r.db.WithContext(ctx).Where("topic_id = ? AND difficulty = ?", topicID, difficulty))
}

// FindAnyByTopic возвращает любой вопрос темы (наименьший ID) или (nil, nil)
func (r *QuestionRepo) FindAnyByTopic(ctx context.Context, topicID uint) (*entity.Question, error) {
	return r.findFirst(r.db.WithContext(ctx).Where("topic_id = ?", topicID))
}

func (r *QuestionRepo) findFirst(query *gorm.DB) (*entity.Question, error) {
	var questions []entity.Question
	// Find + Limit вместо First: отсутствие вопроса - штатная ситуация, а не ошибка
	if err := query.Order("id ASC").Limit(1).Find(&questions).Error; err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}
	return &questions[0], nil
}
