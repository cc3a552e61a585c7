package entity

import "time"

// ProgressEvent - событие об изменении прогресса студента после ответа
type ProgressEvent struct {
	StudentID         uint      `json:"student_id"`
	TopicID           uint      `json:"topic_id"`
	IsCorrect         bool      `json:"is_correct"`
	CurrentDifficulty int       `json:"current_difficulty"`
	Streak            int       `json:"streak"`
	MasteryLevel      int       `json:"mastery_level"`
	QuizOver          bool      `json:"quiz_over"`
	At                time.Time `json:"at"`
}
