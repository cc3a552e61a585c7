package repository

import (
	"context"

	"github.com/yourusername/mastery-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов.
// Методы поиска возвращают вопрос с наименьшим ID среди подходящих либо (nil, nil), если подходящих нет.
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	CreateBatch(ctx context.Context, questions []entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	ListByTopic(ctx context.Context, topicID uint) ([]entity.Question, error)

	FindByTopicAndDifficulty(ctx context.Context, topicID uint, difficulty int) (*entity.Question, error)
	FindAnyByTopic(ctx context.Context, topicID uint) (*entity.Question, error)
}
