package dto

import (
	"github.com/yourusername/mastery-api/internal/service"
)

// QuestionResponse - вопрос для студента, без правильного ответа и объяснения
type QuestionResponse struct {
	ID         uint     `json:"id"`
	TopicID    uint     `json:"topicId"`
	TopicName  string   `json:"topicName"`
	Difficulty int      `json:"difficulty"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
}

// StartQuizResponse содержит либо вопрос, либо признак завершения курса
type StartQuizResponse struct {
	QuizOver bool              `json:"quizOver,omitempty"`
	Message  string            `json:"message,omitempty"`
	Question *QuestionResponse `json:"question,omitempty"`
}

// SubmitAnswerRequest - ответ студента. Указатель позволяет отличить индекс 0 от отсутствия поля.
type SubmitAnswerRequest struct {
	QuestionID  uint `json:"questionId" binding:"required"`
	AnswerIndex *int `json:"answerIndex" binding:"required"`
}

// SubmitAnswerResponse - результат проверки ответа
type SubmitAnswerResponse struct {
	IsCorrect          bool              `json:"isCorrect"`
	Explanation        string            `json:"explanation"`
	CorrectAnswerIndex int               `json:"correctAnswerIndex"`
	QuizOver           bool              `json:"quizOver"`
	NextQuestion       *QuestionResponse `json:"nextQuestion"`
}

// NewQuestionResponse создает DTO вопроса
func NewQuestionResponse(q *service.SanitizedQuestion) *QuestionResponse {
	if q == nil {
		return nil
	}
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return &QuestionResponse{
		ID:         q.ID,
		TopicID:    q.TopicID,
		TopicName:  q.TopicName,
		Difficulty: q.Difficulty,
		Text:       q.Text,
		Options:    options,
	}
}

// NewStartQuizResponse создает DTO начала теста
func NewStartQuizResponse(res *service.StartQuizResult) StartQuizResponse {
	return StartQuizResponse{
		QuizOver: res.QuizOver,
		Message:  res.Message,
		Question: NewQuestionResponse(res.Question),
	}
}

// NewSubmitAnswerResponse создает DTO результата ответа
func NewSubmitAnswerResponse(res *service.SubmitAnswerResult) SubmitAnswerResponse {
	return SubmitAnswerResponse{
		IsCorrect:          res.IsCorrect,
		Explanation:        res.Explanation,
		CorrectAnswerIndex: res.CorrectAnswerIndex,
		QuizOver:           res.QuizOver,
		NextQuestion:       NewQuestionResponse(res.NextQuestion),
	}
}
