package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/domain/repository"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
	"github.com/yourusername/mastery-api/internal/service/progression"
)

// AllMasteredMessage - сообщение для студента, освоившего все темы курса
const AllMasteredMessage = "Congratulations! You have mastered all topics."

// TopicLister - источник упорядоченного каталога тем
type TopicLister interface {
	ListOrdered(ctx context.Context) ([]entity.Topic, error)
}

// ProgressNotifier получает события об изменении прогресса после успешной записи
type ProgressNotifier interface {
	NotifyProgress(event entity.ProgressEvent)
}

// QuizOptions содержит параметры записи прогресса
type QuizOptions struct {
	// MaxWriteAttempts - число попыток цикла чтение-переход-запись при конфликте версий
	MaxWriteAttempts int
	// RetryBackoff - базовая пауза между попытками, растёт линейно и дополняется случайной добавкой
	RetryBackoff time.Duration
	// PersistTimeout - ограничение на запись, не зависящее от отмены запроса
	PersistTimeout time.Duration
}

// DefaultQuizOptions возвращает параметры по умолчанию
func DefaultQuizOptions() QuizOptions {
	return QuizOptions{
		MaxWriteAttempts: 5,
		RetryBackoff:     10 * time.Millisecond,
		PersistTimeout:   5 * time.Second,
	}
}

// SanitizedQuestion - вопрос без правильного ответа и объяснения
type SanitizedQuestion struct {
	ID         uint
	TopicID    uint
	TopicName  string
	Difficulty int
	Text       string
	Options    []string
}

// StartQuizResult - результат начала теста: либо вопрос, либо завершение курса
type StartQuizResult struct {
	QuizOver bool
	Message  string
	Question *SanitizedQuestion
}

// SubmitAnswerResult - результат ответа на вопрос
type SubmitAnswerResult struct {
	IsCorrect          bool
	Explanation        string
	CorrectAnswerIndex int
	QuizOver           bool
	NextQuestion       *SanitizedQuestion
}

// QuizService ведёт студента по курсу: выдаёт вопросы и обрабатывает ответы.
// Запись прогресса оптимистичная: при конфликте версий весь цикл повторяется.
type QuizService struct {
	progressRepo repository.ProgressRepository
	questionRepo repository.QuestionRepository
	topicRepo    repository.TopicRepository
	catalog      TopicLister
	rules        *progression.DifficultyConfig
	selector     *progression.QuestionSelector
	sequencer    *progression.TopicSequencer
	notifier     ProgressNotifier
	opts         QuizOptions
	now          func() time.Time
}

// NewQuizService создает новый сервис прохождения теста. notifier может быть nil.
func NewQuizService(
	progressRepo repository.ProgressRepository,
	questionRepo repository.QuestionRepository,
	topicRepo repository.TopicRepository,
	catalog TopicLister,
	rules *progression.DifficultyConfig,
	notifier ProgressNotifier,
	opts QuizOptions,
) *QuizService {
	if rules == nil {
		rules = progression.DefaultDifficultyConfig()
	}
	if opts.MaxWriteAttempts < 1 {
		opts.MaxWriteAttempts = 1
	}
	return &QuizService{
		progressRepo: progressRepo,
		questionRepo: questionRepo,
		topicRepo:    topicRepo,
		catalog:      catalog,
		rules:        rules,
		selector:     progression.NewQuestionSelector(questionRepo),
		sequencer:    progression.NewTopicSequencer(rules),
		notifier:     notifier,
		opts:         opts,
		now:          time.Now,
	}
}

// StartQuiz возвращает вопрос по первой неосвоенной теме студента
func (s *QuizService) StartQuiz(ctx context.Context, studentID uint) (*StartQuizResult, error) {
	var result *StartQuizResult

	err := s.withWriteRetry(ctx, "StartQuiz", studentID, func() error {
		progress, err := s.loadProgress(ctx, studentID)
		if err != nil {
			return err
		}
		expectedVersion := progress.Version

		topics, err := s.catalog.ListOrdered(ctx)
		if err != nil {
			return storeError("list topics", err)
		}
		if len(topics) == 0 {
			return ErrNoTopics
		}

		target, materialized := s.sequencer.NextTarget(progress, topics)
		if target == nil {
			if materialized {
				if err := s.persist(ctx, progress, expectedVersion); err != nil {
					return err
				}
			}
			result = &StartQuizResult{QuizOver: true, Message: AllMasteredMessage}
			return nil
		}

		tp, _ := progress.Entry(target.ID)
		question, err := s.selector.SelectQuestion(ctx, target.ID, tp.CurrentDifficulty)
		if err != nil {
			if errors.Is(err, progression.ErrTopicHasNoQuestions) {
				return fmt.Errorf("%w: %s", ErrNoQuestions, target.Name)
			}
			return storeError("select question", err)
		}

		if materialized {
			if err := s.persist(ctx, progress, expectedVersion); err != nil {
				return err
			}
		}

		result = &StartQuizResult{Question: sanitize(question, target.Name)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitAnswer проверяет ответ, обновляет прогресс по теме вопроса и подбирает следующий вопрос.
// Обновлённый прогресс записывается одной атомарной операцией.
func (s *QuizService) SubmitAnswer(ctx context.Context, studentID, questionID uint, answerIndex int) (*SubmitAnswerResult, error) {
	if answerIndex < 0 || answerIndex >= entity.OptionsPerQuestion {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAnswerIndex, answerIndex)
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: #%d", ErrQuestionNotFound, questionID)
		}
		return nil, storeError("get question", err)
	}
	isCorrect := question.IsCorrect(answerIndex)

	// Тема берётся из базы: кешированный каталог может ещё не содержать новую тему
	topic, err := s.topicRepo.GetByID(ctx, question.TopicID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: #%d", ErrTopicNotFound, question.TopicID)
		}
		return nil, storeError("get topic", err)
	}

	var (
		result *SubmitAnswerResult
		event  entity.ProgressEvent
	)

	err = s.withWriteRetry(ctx, "SubmitAnswer", studentID, func() error {
		progress, err := s.loadProgress(ctx, studentID)
		if err != nil {
			return err
		}
		expectedVersion := progress.Version

		current, _ := progress.GetOrCreate(question.TopicID)
		updated := s.rules.Apply(current, isCorrect, s.now())
		progress.Put(updated)

		next, quizOver, err := s.nextQuestionAfter(ctx, progress, *topic, updated)
		if err != nil {
			return err
		}

		if err := s.persist(ctx, progress, expectedVersion); err != nil {
			return err
		}

		result = &SubmitAnswerResult{
			IsCorrect:          isCorrect,
			Explanation:        question.Explanation,
			CorrectAnswerIndex: question.CorrectAnswerIndex,
			QuizOver:           quizOver,
			NextQuestion:       next,
		}
		event = entity.ProgressEvent{
			StudentID:         studentID,
			TopicID:           question.TopicID,
			IsCorrect:         isCorrect,
			CurrentDifficulty: updated.CurrentDifficulty,
			Streak:            updated.Streak,
			MasteryLevel:      updated.MasteryLevel,
			QuizOver:          quizOver,
			At:                *updated.LastAttemptedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyProgress(event)
	}
	return result, nil
}

// nextQuestionAfter подбирает следующий вопрос после ответа по теме current.
// Пока тема не освоена, вопрос берётся из неё же, каталог не нужен.
// Если тема освоена, переходит к следующей по порядку и создаёт для неё запись прогресса.
func (s *QuizService) nextQuestionAfter(
	ctx context.Context,
	progress *entity.StudentProgress,
	current entity.Topic,
	updated entity.TopicProgress,
) (*SanitizedQuestion, bool, error) {
	targetTopic := &current
	difficulty := updated.CurrentDifficulty

	if s.rules.IsMastered(updated) {
		topics, err := s.catalog.ListOrdered(ctx)
		if err != nil {
			return nil, false, storeError("list topics", err)
		}
		targetTopic = s.sequencer.AdvanceAfterMastery(current, topics)
		if targetTopic == nil {
			log.Printf("[QuizService] Студент #%d прошёл последнюю тему курса", progress.StudentID)
			return nil, true, nil
		}
		nextTP, _ := progress.GetOrCreate(targetTopic.ID)
		difficulty = nextTP.CurrentDifficulty
	}

	question, err := s.selector.SelectQuestion(ctx, targetTopic.ID, difficulty)
	if err != nil {
		if errors.Is(err, progression.ErrTopicHasNoQuestions) {
			log.Printf("[QuizService] В теме #%d нет вопросов, тест для студента #%d завершён", targetTopic.ID, progress.StudentID)
			return nil, true, nil
		}
		return nil, false, storeError("select question", err)
	}
	return sanitize(question, targetTopic.Name), false, nil
}

func (s *QuizService) loadProgress(ctx context.Context, studentID uint) (*entity.StudentProgress, error) {
	progress, err := s.progressRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: student #%d", ErrProgressNotFound, studentID)
		}
		return nil, storeError("load progress", err)
	}
	return progress, nil
}

// persist записывает прогресс. Запись отвязана от отмены запроса, чтобы не оборваться на середине.
func (s *QuizService) persist(ctx context.Context, progress *entity.StudentProgress, expectedVersion int64) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PersistTimeout)
	defer cancel()

	if err := s.progressRepo.Save(writeCtx, progress, expectedVersion); err != nil {
		return storeError("save progress", err)
	}
	return nil
}

// withWriteRetry повторяет attempt при конфликте версий. После исчерпания попыток
// возвращает ErrUnavailable: ничего не записано, запрос можно повторить.
func (s *QuizService) withWriteRetry(ctx context.Context, op string, studentID uint, attempt func() error) error {
	var lastErr error
	for i := 1; i <= s.opts.MaxWriteAttempts; i++ {
		err := attempt()
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		lastErr = err
		log.Printf("[QuizService] %s: конфликт версии прогресса студента #%d (попытка %d/%d)",
			op, studentID, i, s.opts.MaxWriteAttempts)

		if i < s.opts.MaxWriteAttempts {
			if err := s.backoff(ctx, i); err != nil {
				return fmt.Errorf("%s: %w: %w", op, apperrors.ErrUnavailable, err)
			}
		}
	}
	return fmt.Errorf("%s: write attempts exhausted for student #%d: %w (last: %v)",
		op, studentID, apperrors.ErrUnavailable, lastErr)
}

func (s *QuizService) backoff(ctx context.Context, attempt int) error {
	if s.opts.RetryBackoff <= 0 {
		return ctx.Err()
	}
	delay := s.opts.RetryBackoff * time.Duration(attempt)
	delay += time.Duration(rand.Int63n(int64(s.opts.RetryBackoff)))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func sanitize(q *entity.Question, topicName string) *SanitizedQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return &SanitizedQuestion{
		ID:         q.ID,
		TopicID:    q.TopicID,
		TopicName:  topicName,
		Difficulty: q.Difficulty,
		Text:       q.Text,
		Options:    options,
	}
}
