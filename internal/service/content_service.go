package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/domain/repository"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

// ContentService управляет каталогом тем и банком вопросов
type ContentService struct {
	topicRepo    repository.TopicRepository
	questionRepo repository.QuestionRepository
	catalog      *TopicCatalog
}

// NewContentService создает новый сервис контента
func NewContentService(topicRepo repository.TopicRepository, questionRepo repository.QuestionRepository, catalog *TopicCatalog) *ContentService {
	return &ContentService{topicRepo: topicRepo, questionRepo: questionRepo, catalog: catalog}
}

// QuestionInput - данные нового вопроса
type QuestionInput struct {
	TopicID            uint
	Text               string
	Options            []string
	CorrectAnswerIndex int
	Difficulty         int
	Explanation        string
}

// CreateTopic добавляет тему. Имя и порядок должны быть уникальны.
func (s *ContentService) CreateTopic(ctx context.Context, name, subject string, order int) (*entity.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: topic name is required", apperrors.ErrValidation)
	}
	if order < 1 {
		return nil, fmt.Errorf("%w: topic order must be positive", apperrors.ErrValidation)
	}

	topic := &entity.Topic{Name: name, Subject: strings.TrimSpace(subject), Order: order}
	if err := s.topicRepo.Create(ctx, topic); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: name=%q order=%d", ErrDuplicateTopic, name, order)
		}
		return nil, storeError("create topic", err)
	}

	s.catalog.Invalidate(ctx)
	log.Printf("[ContentService] Создана тема #%d %q (порядок %d)", topic.ID, topic.Name, topic.Order)
	return topic, nil
}

// ListTopics возвращает каталог тем по порядку прохождения
func (s *ContentService) ListTopics(ctx context.Context) ([]entity.Topic, error) {
	return s.catalog.ListOrdered(ctx)
}

// CreateQuestion добавляет вопрос в существующую тему
func (s *ContentService) CreateQuestion(ctx context.Context, input QuestionInput) (*entity.Question, error) {
	if err := validateQuestion(input.Text, input.Options, input.CorrectAnswerIndex, input.Difficulty); err != nil {
		return nil, err
	}
	if _, err := s.getTopic(ctx, input.TopicID); err != nil {
		return nil, err
	}

	question := &entity.Question{
		TopicID:            input.TopicID,
		Text:               strings.TrimSpace(input.Text),
		Options:            trimOptions(input.Options),
		CorrectAnswerIndex: input.CorrectAnswerIndex,
		Difficulty:         input.Difficulty,
		Explanation:        strings.TrimSpace(input.Explanation),
	}
	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, storeError("create question", err)
	}
	return question, nil
}

// ListQuestions возвращает вопросы темы вместе с ответами, по возрастанию сложности
func (s *ContentService) ListQuestions(ctx context.Context, topicID uint) ([]entity.Question, error) {
	if _, err := s.getTopic(ctx, topicID); err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, storeError("list questions", err)
	}
	return questions, nil
}

// ImportQuestions проверяет все строки и сохраняет вопросы одной транзакцией.
// Если хотя бы одна строка невалидна, ничего не сохраняется.
func (s *ContentService) ImportQuestions(ctx context.Context, rows []QuestionRow) (int, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: no questions to import", apperrors.ErrValidation)
	}

	topicsByOrder := map[int]uint{}
	topics, err := s.catalog.ListOrdered(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range topics {
		topicsByOrder[t.Order] = t.ID
	}

	importErr := &ImportError{}
	questions := make([]entity.Question, 0, len(rows))
	for _, row := range rows {
		topicID, ok := topicsByOrder[row.TopicOrder]
		if !ok {
			importErr.add(row.Row, fmt.Sprintf("topic with order %d not found", row.TopicOrder))
			continue
		}
		if err := validateQuestion(row.Text, row.Options, row.CorrectAnswerIndex, row.Difficulty); err != nil {
			importErr.add(row.Row, strings.TrimPrefix(err.Error(), apperrors.ErrValidation.Error()+": "))
			continue
		}
		questions = append(questions, entity.Question{
			TopicID:            topicID,
			Text:               strings.TrimSpace(row.Text),
			Options:            trimOptions(row.Options),
			CorrectAnswerIndex: row.CorrectAnswerIndex,
			Difficulty:         row.Difficulty,
			Explanation:        strings.TrimSpace(row.Explanation),
		})
	}
	if len(importErr.Rows) > 0 {
		return 0, importErr
	}

	if err := s.questionRepo.CreateBatch(ctx, questions); err != nil {
		return 0, storeError("import questions", err)
	}
	log.Printf("[ContentService] Импортировано вопросов: %d", len(questions))
	return len(questions), nil
}

func (s *ContentService) getTopic(ctx context.Context, topicID uint) (*entity.Topic, error) {
	topic, err := s.topicRepo.GetByID(ctx, topicID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: #%d", ErrTopicNotFound, topicID)
		}
		return nil, storeError("get topic", err)
	}
	return topic, nil
}

func validateQuestion(text string, options []string, correctIndex, difficulty int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: question text is required", apperrors.ErrValidation)
	}
	if len(options) != entity.OptionsPerQuestion {
		return fmt.Errorf("%w: exactly %d options are required, got %d", apperrors.ErrValidation, entity.OptionsPerQuestion, len(options))
	}
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: option %d is empty", apperrors.ErrValidation, i)
		}
	}
	if correctIndex < 0 || correctIndex >= entity.OptionsPerQuestion {
		return fmt.Errorf("%w: correct answer index must be between 0 and %d", apperrors.ErrValidation, entity.OptionsPerQuestion-1)
	}
	if difficulty < entity.MinLevel || difficulty > entity.MaxLevel {
		return fmt.Errorf("%w: difficulty must be between %d and %d", apperrors.ErrValidation, entity.MinLevel, entity.MaxLevel)
	}
	return nil
}

func trimOptions(options []string) entity.StringArray {
	out := make(entity.StringArray, len(options))
	for i, opt := range options {
		out[i] = strings.TrimSpace(opt)
	}
	return out
}
