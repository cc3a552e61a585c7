package progression

import (
	"slices"

	"github.com/yourusername/mastery-api/internal/domain/entity"
)

// TopicSequencer определяет, какую тему студент проходит следующей
type TopicSequencer struct {
	config *DifficultyConfig
}

// NewTopicSequencer создаёт новый секвенсор
func NewTopicSequencer(config *DifficultyConfig) *TopicSequencer {
	return &TopicSequencer{config: config}
}

func sortedByOrder(topics []entity.Topic) []entity.Topic {
	sorted := slices.Clone(topics)
	slices.SortStableFunc(sorted, func(a, b entity.Topic) int {
		return a.Order - b.Order
	})
	return sorted
}

// NextTarget возвращает первую неосвоенную тему по возрастанию Order.
// Для каждой просмотренной темы, включая целевую, запись прогресса создаётся при первом обращении.
// Возвращает nil, если все темы освоены. Второе значение true, если были созданы новые записи.
func (s *TopicSequencer) NextTarget(progress *entity.StudentProgress, topics []entity.Topic) (*entity.Topic, bool) {
	materialized := false
	for _, topic := range sortedByOrder(topics) {
		tp, created := progress.GetOrCreate(topic.ID)
		materialized = materialized || created
		if !s.config.IsMastered(tp) {
			target := topic
			return &target, materialized
		}
	}
	return nil, materialized
}

// AdvanceAfterMastery возвращает тему со следующим по величине Order или nil, если курс пройден
func (s *TopicSequencer) AdvanceAfterMastery(current entity.Topic, topics []entity.Topic) *entity.Topic {
	for _, topic := range sortedByOrder(topics) {
		if topic.Order > current.Order {
			next := topic
			return &next
		}
	}
	return nil
}
