package progression

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

// ErrTopicHasNoQuestions возвращается, когда у темы нет ни одного вопроса
var ErrTopicHasNoQuestions = fmt.Errorf("%w: topic has no questions", apperrors.ErrNotFound)

// QuestionFinder - часть банка вопросов, нужная селектору.
// Оба метода возвращают вопрос с наименьшим ID или (nil, nil).
type QuestionFinder interface {
	FindByTopicAndDifficulty(ctx context.Context, topicID uint, difficulty int) (*entity.Question, error)
	FindAnyByTopic(ctx context.Context, topicID uint) (*entity.Question, error)
}

// QuestionSelector выбирает вопрос темы под текущую сложность
type QuestionSelector struct {
	finder QuestionFinder
}

// NewQuestionSelector создаёт новый селектор
func NewQuestionSelector(finder QuestionFinder) *QuestionSelector {
	return &QuestionSelector{finder: finder}
}

// SelectQuestion ищет вопрос точной сложности, иначе любой вопрос темы.
// ErrTopicHasNoQuestions возвращается только если в теме нет вопросов вовсе.
func (s *QuestionSelector) SelectQuestion(ctx context.Context, topicID uint, difficulty int) (*entity.Question, error) {
	question, err := s.finder.FindByTopicAndDifficulty(ctx, topicID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("find question topic=%d difficulty=%d: %w", topicID, difficulty, err)
	}
	if question != nil {
		return question, nil
	}

	question, err = s.finder.FindAnyByTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("find fallback question topic=%d: %w", topicID, err)
	}
	if question == nil {
		return nil, fmt.Errorf("%w (topic #%d)", ErrTopicHasNoQuestions, topicID)
	}

	log.Printf("[QuestionSelector] Нет вопросов сложности %d в теме #%d, выбран вопрос ID=%d сложности %d",
		difficulty, topicID, question.ID, question.Difficulty)
	return question, nil
}
