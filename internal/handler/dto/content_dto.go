package dto

import (
	"time"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/service"
)

// CreateTopicRequest - запрос на создание темы
type CreateTopicRequest struct {
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject"`
	Order   int    `json:"order"`
}

// TopicResponse - тема каталога
type TopicResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Order   int    `json:"order"`
}

// CreateQuestionRequest - запрос на создание вопроса
type CreateQuestionRequest struct {
	TopicID            uint     `json:"topicId" binding:"required"`
	Text               string   `json:"text" binding:"required"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex" binding:"required"`
	Difficulty         int      `json:"difficulty"`
	Explanation        string   `json:"explanation"`
}

// QuestionDetailResponse - вопрос с ответом, для преподавателя
type QuestionDetailResponse struct {
	ID                 uint      `json:"id"`
	TopicID            uint      `json:"topicId"`
	Text               string    `json:"text"`
	Options            []string  `json:"options"`
	CorrectAnswerIndex int       `json:"correctAnswerIndex"`
	Difficulty         int       `json:"difficulty"`
	Explanation        string    `json:"explanation"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ImportResponse - итог импорта вопросов
type ImportResponse struct {
	Imported int `json:"imported"`
}

// ToQuestionInput преобразует запрос во входные данные сервиса
func (r CreateQuestionRequest) ToQuestionInput() service.QuestionInput {
	return service.QuestionInput{
		TopicID:            r.TopicID,
		Text:               r.Text,
		Options:            r.Options,
		CorrectAnswerIndex: *r.CorrectAnswerIndex,
		Difficulty:         r.Difficulty,
		Explanation:        r.Explanation,
	}
}

// NewTopicResponse создает DTO темы
func NewTopicResponse(t *entity.Topic) TopicResponse {
	return TopicResponse{ID: t.ID, Name: t.Name, Subject: t.Subject, Order: t.Order}
}

// NewTopicListResponse создает список DTO тем
func NewTopicListResponse(topics []entity.Topic) []TopicResponse {
	out := make([]TopicResponse, 0, len(topics))
	for i := range topics {
		out = append(out, NewTopicResponse(&topics[i]))
	}
	return out
}

// NewQuestionDetailResponse создает DTO вопроса с ответом
func NewQuestionDetailResponse(q *entity.Question) QuestionDetailResponse {
	return QuestionDetailResponse{
		ID:                 q.ID,
		TopicID:            q.TopicID,
		Text:               q.Text,
		Options:            []string(q.Options),
		CorrectAnswerIndex: q.CorrectAnswerIndex,
		Difficulty:         q.Difficulty,
		Explanation:        q.Explanation,
		CreatedAt:          q.CreatedAt,
	}
}

// NewQuestionDetailListResponse создает список DTO вопросов
func NewQuestionDetailListResponse(questions []entity.Question) []QuestionDetailResponse {
	out := make([]QuestionDetailResponse, 0, len(questions))
	for i := range questions {
		out = append(out, NewQuestionDetailResponse(&questions[i]))
	}
	return out
}
