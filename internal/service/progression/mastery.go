package progression

import (
	"time"

	"github.com/yourusername/mastery-api/internal/domain/entity"
)

// TopicState - производное состояние темы для студента
type TopicState int

const (
	// StateUnstarted - записи по теме ещё нет
	StateUnstarted TopicState = iota
	// StateInProgress - тема начата, уровень освоения ниже MasteredLevel
	StateInProgress
	// StateMastered - тема освоена
	StateMastered
)

func (s TopicState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateInProgress:
		return "in_progress"
	case StateMastered:
		return "mastered"
	default:
		return "unknown"
	}
}

// Apply вычисляет новое состояние темы после ответа. Чистая функция: вход не изменяется.
//
// Верный ответ увеличивает серию; по достижении StreakToAdvance сложность растёт на 1
// (не выше MaxDifficulty), серия обнуляется, а уровень освоения подтягивается к сложности.
// Неверный ответ обнуляет серию и снижает сложность на 1 (не ниже MinDifficulty),
// уровень освоения не меняется никогда в меньшую сторону.
func (c *DifficultyConfig) Apply(tp entity.TopicProgress, isCorrect bool, at time.Time) entity.TopicProgress {
	next := tp
	attemptedAt := at
	next.LastAttemptedAt = &attemptedAt

	if isCorrect {
		next.Streak++
		if next.Streak >= c.StreakToAdvance {
			next.CurrentDifficulty = min(c.MaxDifficulty, next.CurrentDifficulty+1)
			next.Streak = 0
		}
		next.MasteryLevel = max(next.MasteryLevel, next.CurrentDifficulty)
		return next
	}

	next.Streak = 0
	next.CurrentDifficulty = max(c.MinDifficulty, next.CurrentDifficulty-1)
	return next
}

// IsMastered сообщает, освоена ли тема
func (c *DifficultyConfig) IsMastered(tp entity.TopicProgress) bool {
	return tp.MasteryLevel >= c.MasteredLevel
}

// StateOf возвращает производное состояние темы по записи прогресса
func (c *DifficultyConfig) StateOf(progress *entity.StudentProgress, topicID uint) TopicState {
	tp, ok := progress.Entry(topicID)
	if !ok {
		return StateUnstarted
	}
	if c.IsMastered(tp) {
		return StateMastered
	}
	return StateInProgress
}
