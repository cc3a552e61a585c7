package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Границы шкалы сложности и уровня освоения
const (
	MinLevel = 1
	MaxLevel = 5
)

// TopicProgress - состояние освоения одной темы студентом
type TopicProgress struct {
	TopicID           uint       `json:"topic_id"`
	CurrentDifficulty int        `json:"current_difficulty"`
	Streak            int        `json:"streak"`
	MasteryLevel      int        `json:"mastery_level"`
	LastAttemptedAt   *time.Time `json:"last_attempted_at,omitempty"`
}

// NewTopicProgress возвращает начальное состояние темы: сложность 1, серия 0, освоение 1
func NewTopicProgress(topicID uint) TopicProgress {
	return TopicProgress{
		TopicID:           topicID,
		CurrentDifficulty: MinLevel,
		Streak:            0,
		MasteryLevel:      MinLevel,
	}
}

// TopicProgressMap - словарь topicID -> TopicProgress, хранится в JSONB
type TopicProgressMap map[uint]TopicProgress

// Scan реализует интерфейс sql.Scanner для TopicProgressMap
func (m *TopicProgressMap) Scan(value interface{}) error {
	if value == nil {
		*m = TopicProgressMap{}
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
		*m = TopicProgressMap{}
		return nil
	}

	result := TopicProgressMap{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// Value реализует интерфейс driver.Valuer для TopicProgressMap
func (m TopicProgressMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// StudentProgress - единственная запись прогресса студента.
// Version увеличивается при каждой успешной записи и используется для оптимистичной блокировки.
type StudentProgress struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	StudentID uint             `gorm:"not null;uniqueIndex" json:"student_id"`
	Topics    TopicProgressMap `gorm:"type:jsonb;not null" json:"topics"`
	Version   int64            `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (StudentProgress) TableName() string {
	return "student_progress"
}

// NewStudentProgress создаёт пустую запись прогресса для нового студента
func NewStudentProgress(studentID uint) *StudentProgress {
	return &StudentProgress{
		StudentID: studentID,
		Topics:    TopicProgressMap{},
	}
}

// Entry возвращает запись по теме без создания
func (p *StudentProgress) Entry(topicID uint) (TopicProgress, bool) {
	tp, ok := p.Topics[topicID]
	return tp, ok
}

// GetOrCreate возвращает запись по теме, создавая начальную при первом обращении.
// Второе значение true, если запись была создана этим вызовом.
func (p *StudentProgress) GetOrCreate(topicID uint) (TopicProgress, bool) {
	if p.Topics == nil {
		p.Topics = TopicProgressMap{}
	}
	if tp, ok := p.Topics[topicID]; ok {
		return tp, false
	}
	tp := NewTopicProgress(topicID)
	p.Topics[topicID] = tp
	return tp, true
}

// Put сохраняет запись по теме
func (p *StudentProgress) Put(tp TopicProgress) {
	if p.Topics == nil {
		p.Topics = TopicProgressMap{}
	}
	p.Topics[tp.TopicID] = tp
}

// Clone возвращает глубокую копию записи
func (p *StudentProgress) Clone() *StudentProgress {
	cp := *p
	cp.Topics = make(TopicProgressMap, len(p.Topics))
	for id, tp := range p.Topics {
		if tp.LastAttemptedAt != nil {
			at := *tp.LastAttemptedAt
			tp.LastAttemptedAt = &at
		}
		cp.Topics[id] = tp
	}
	return &cp
}
