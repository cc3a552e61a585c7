package progression

import "github.com/yourusername/mastery-api/internal/domain/entity"

// DifficultyConfig содержит правила адаптивной шкалы сложности
type DifficultyConfig struct {
	// MinDifficulty - минимальный уровень сложности
	MinDifficulty int

	// MaxDifficulty - максимальный уровень сложности
	MaxDifficulty int

	// StreakToAdvance - сколько правильных ответов подряд повышают сложность
	StreakToAdvance int

	// MasteredLevel - уровень освоения, при котором тема считается пройденной
	MasteredLevel int
}

// DefaultDifficultyConfig возвращает стандартные правила: шкала 1..5, повышение после 2 верных ответов подряд
func DefaultDifficultyConfig() *DifficultyConfig {
	return &DifficultyConfig{
		MinDifficulty:   entity.MinLevel,
		MaxDifficulty:   entity.MaxLevel,
		StreakToAdvance: 2,
		MasteredLevel:   entity.MaxLevel,
	}
}
