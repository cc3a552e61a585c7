package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// OptionsPerQuestion - фиксированное число вариантов ответа у вопроса
const OptionsPerQuestion = 4

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос банка вопросов, привязанный к теме и уровню сложности
type Question struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	TopicID            uint        `gorm:"not null;index:idx_questions_topic_difficulty,priority:1" json:"topic_id"`
	Text               string      `gorm:"size:1000;not null" json:"text"`
	Options            StringArray `gorm:"type:jsonb;not null" json:"options"`
	CorrectAnswerIndex int         `gorm:"not null" json:"-"` // Скрыто от клиента
	Difficulty         int         `gorm:"not null;index:idx_questions_topic_difficulty,priority:2" json:"difficulty"`
	Explanation        string      `gorm:"type:text;not null;default:''" json:"-"` // Показывается только после ответа
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selectedOption int) bool {
	return selectedOption == q.CorrectAnswerIndex
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}

// IsValidOption проверяет, является ли выбранный вариант допустимым
func (q *Question) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < len(q.Options)
}
