package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/domain/repository"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
	"github.com/yourusername/mastery-api/internal/service/progression"
)

// TopicMastery - уровень освоения одной темы
type TopicMastery struct {
	TopicID  uint   `json:"topicId"`
	Name     string `json:"name"`
	Mastery  int    `json:"mastery"`
	Started  bool   `json:"started"`
	Mastered bool   `json:"mastered"`
}

// StudentOverview - строка сводной таблицы: студент и его уровни по всем темам каталога
type StudentOverview struct {
	StudentID uint           `json:"studentId"`
	Username  string         `json:"username"`
	Topics    []TopicMastery `json:"topics"`
}

// AnalyticsService строит отчёты по прогрессу студентов
type AnalyticsService struct {
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
	catalog      TopicLister
	rules        *progression.DifficultyConfig
}

// NewAnalyticsService создает сервис отчётов. Освоенность темы определяется теми же правилами, что и в QuizService.
func NewAnalyticsService(userRepo repository.UserRepository, progressRepo repository.ProgressRepository, catalog TopicLister, rules *progression.DifficultyConfig) *AnalyticsService {
	if rules == nil {
		rules = progression.DefaultDifficultyConfig()
	}
	return &AnalyticsService{userRepo: userRepo, progressRepo: progressRepo, catalog: catalog, rules: rules}
}

// Overview возвращает таблицу "все студенты x все темы" в порядке каталога.
// Для непройденных тем уровень равен 0.
func (s *AnalyticsService) Overview(ctx context.Context) ([]StudentOverview, error) {
	topics, err := s.catalog.ListOrdered(ctx)
	if err != nil {
		return nil, storeError("list topics", err)
	}

	students, err := s.userRepo.ListByRole(entity.RoleStudent)
	if err != nil {
		return nil, storeError("list students", err)
	}

	records, err := s.progressRepo.List(ctx)
	if err != nil {
		return nil, storeError("list progress", err)
	}
	byStudent := make(map[uint]*entity.StudentProgress, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}

	rows := make([]StudentOverview, 0, len(students))
	for _, u := range students {
		rows = append(rows, StudentOverview{
			StudentID: u.ID,
			Username:  u.Username,
			Topics:    s.masteryRow(byStudent[u.ID], topics),
		})
	}
	return rows, nil
}

// StudentProgress возвращает уровни студента по темам каталога
func (s *AnalyticsService) StudentProgress(ctx context.Context, studentID uint) ([]TopicMastery, error) {
	topics, err := s.catalog.ListOrdered(ctx)
	if err != nil {
		return nil, storeError("list topics", err)
	}
	progress, err := s.progressRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: student #%d", ErrProgressNotFound, studentID)
		}
		return nil, storeError("load progress", err)
	}
	return s.masteryRow(progress, topics), nil
}

func (s *AnalyticsService) masteryRow(progress *entity.StudentProgress, topics []entity.Topic) []TopicMastery {
	row := make([]TopicMastery, 0, len(topics))
	for _, t := range topics {
		m := TopicMastery{TopicID: t.ID, Name: t.Name}
		if progress != nil {
			if tp, ok := progress.Entry(t.ID); ok {
				m.Started = true
				m.Mastery = tp.MasteryLevel
				m.Mastered = s.rules.IsMastered(tp)
			}
		}
		row = append(row, m)
	}
	return row
}
