package repository

import (
	"github.com/yourusername/mastery-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	// CreateWithProgress создаёт пользователя и пустую запись прогресса в одной транзакции
	CreateWithProgress(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	ListByRole(role string) ([]entity.User, error)
}
