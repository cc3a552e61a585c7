package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/mastery-api/internal/domain/entity"
)

// TopicRepo реализует repository.TopicRepository
type TopicRepo struct {
	db *gorm.DB
}

// NewTopicRepo создает новый репозиторий тем
func NewTopicRepo(db *gorm.DB) *TopicRepo {
	return &TopicRepo{db: db}
}

// Create создает новую тему. Дубликат имени или порядка возвращает apperrors.ErrConflict.
func (r *TopicRepo) Create(ctx context.Context, topic *entity.Topic) error {
	return translateError(r.db.WithContext(ctx).Create(topic).Error)
}

// GetByID возвращает тему по ID
func (r *TopicRepo) GetByID(ctx context.Context, id uint) (*entity.Topic, error) {
	var topic entity.Topic
	if err := r.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &topic, nil
}

// GetByOrder возвращает тему по порядковому номеру
func (r *TopicRepo) GetByOrder(ctx context.Context, order int) (*entity.Topic, error) {
	var topic entity.Topic
	if err := r.db.WithContext(ctx).Where("position = ?", order).First(&topic).Error; err != nil {
		return nil, translateError(err)
	}
	return &topic, nil
}

// ListOrdered возвращает все темы по возрастанию порядка
func (r *TopicRepo) ListOrdered(ctx context.Context) ([]entity.Topic, error) {
	var topics []entity.Topic
	err := r.db.WithContext(ctx).Order("position ASC").Find(&topics).Error
	if err != nil {
		return nil, err
	}
	return topics, nil
}
