package repository

import (
	"context"

	"github.com/yourusername/mastery-api/internal/domain/entity"
)

// TopicRepository определяет методы для работы с каталогом тем
type TopicRepository interface {
	Create(ctx context.Context, topic *entity.Topic) error
	GetByID(ctx context.Context, id uint) (*entity.Topic, error)
	GetByOrder(ctx context.Context, order int) (*entity.Topic, error)
	// ListOrdered возвращает все темы по возрастанию Order
	ListOrdered(ctx context.Context) ([]entity.Topic, error)
}
