package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"gopkg.in/yaml.v3"

	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

// CourseFile - описание курса в YAML: темы по порядку и их вопросы
type CourseFile struct {
	Subject string        `yaml:"subject"`
	Topics  []CourseTopic `yaml:"topics"`
}

// CourseTopic - тема курса
type CourseTopic struct {
	Name      string           `yaml:"name"`
	Order     int              `yaml:"order"`
	Subject   string           `yaml:"subject"`
	Questions []CourseQuestion `yaml:"questions"`
}

// CourseQuestion - вопрос темы
type CourseQuestion struct {
	Text        string   `yaml:"text"`
	Options     []string `yaml:"options"`
	Correct     int      `yaml:"correct"`
	Difficulty  int      `yaml:"difficulty"`
	Explanation string   `yaml:"explanation"`
}

// SeedSummary - итог загрузки курса
type SeedSummary struct {
	TopicsCreated    int
	TopicsReused     int
	QuestionsCreated int
}

// LoadCourse разбирает YAML-описание курса
func LoadCourse(r io.Reader) (*CourseFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading course: %w", err)
	}

	var course CourseFile
	if err := yaml.Unmarshal(data, &course); err != nil {
		return nil, fmt.Errorf("%w: parsing course: %v", apperrors.ErrValidation, err)
	}
	if len(course.Topics) == 0 {
		return nil, fmt.Errorf("%w: course has no topics", apperrors.ErrValidation)
	}

	seen := map[int]string{}
	for i, t := range course.Topics {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: topic %d has no name", apperrors.ErrValidation, i+1)
		}
		if prev, ok := seen[t.Order]; ok {
			return nil, fmt.Errorf("%w: topics %q and %q share order %d", apperrors.ErrValidation, prev, t.Name, t.Order)
		}
		seen[t.Order] = t.Name
		for j, q := range t.Questions {
			if err := validateQuestion(q.Text, q.Options, q.Correct, q.Difficulty); err != nil {
				return nil, fmt.Errorf("topic %q question %d: %w", t.Name, j+1, err)
			}
		}
	}
	return &course, nil
}

// SeedCourse создаёт темы курса и добавляет их вопросы.
// Тема с тем же именем и порядком, уже существующая в каталоге, используется повторно.
func (s *ContentService) SeedCourse(ctx context.Context, course *CourseFile) (*SeedSummary, error) {
	summary := &SeedSummary{}

	existing, err := s.catalog.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[int]string, len(existing))
	for _, t := range existing {
		byOrder[t.Order] = t.Name
	}

	var rows []QuestionRow
	for _, t := range course.Topics {
		if name, ok := byOrder[t.Order]; ok {
			if name != t.Name {
				return nil, fmt.Errorf("%w: order %d is taken by %q", ErrDuplicateTopic, t.Order, name)
			}
			summary.TopicsReused++
		} else {
			subject := t.Subject
			if subject == "" {
				subject = course.Subject
			}
			if _, err := s.CreateTopic(ctx, t.Name, subject, t.Order); err != nil {
				if errors.Is(err, apperrors.ErrConflict) {
					return nil, fmt.Errorf("seeding topic %q: %w", t.Name, err)
				}
				return nil, err
			}
			summary.TopicsCreated++
		}

		for _, q := range t.Questions {
			rows = append(rows, QuestionRow{
				Row:                len(rows) + 1,
				TopicOrder:         t.Order,
				Text:               q.Text,
				Options:            q.Options,
				CorrectAnswerIndex: q.Correct,
				Difficulty:         q.Difficulty,
				Explanation:        q.Explanation,
			})
		}
	}

	if len(rows) > 0 {
		n, err := s.ImportQuestions(ctx, rows)
		if err != nil {
			return nil, err
		}
		summary.QuestionsCreated = n
	}

	log.Printf("[ContentService] Курс загружен: тем создано %d, переиспользовано %d, вопросов %d",
		summary.TopicsCreated, summary.TopicsReused, summary.QuestionsCreated)
	return summary, nil
}
