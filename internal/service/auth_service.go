package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/domain/repository"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
	"github.com/yourusername/mastery-api/pkg/auth"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
)

// AuthService предоставляет методы для регистрации и входа пользователей
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// RegisterInput содержит данные для регистрации
type RegisterInput struct {
	Username string
	Password string
	Role     string // "student" (по умолчанию) или "instructor"
}

// AuthResult - пользователь и выданный ему токен
type AuthResult struct {
	User  *entity.User
	Token string
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}
	return &AuthService{userRepo: userRepo, jwtService: jwtService}, nil
}

// Register создаёт пользователя. Для студента в той же транзакции создаётся пустая запись прогресса.
func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = entity.RoleStudent
	}

	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", apperrors.ErrValidation, minUsernameLength, maxUsernameLength)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}
	if !entity.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, role)
	}

	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, storeError("check username", err)
	}

	user := &entity.User{Username: username, Password: input.Password, Role: role}

	var err error
	if role == entity.RoleStudent {
		err = s.userRepo.CreateWithProgress(user)
	} else {
		err = s.userRepo.Create(user)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, storeError("create user", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь #%d (%s, роль %s)", user.ID, user.Username, user.Role)
	return s.issue(user)
}

// Login проверяет учётные данные и выдаёт токен
func (s *AuthService) Login(username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError("get user", err)
	}
	if !user.CheckPassword(password) {
		log.Printf("[AuthService] Неверный пароль для пользователя %s", user.Username)
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// GenerateWSTicket выдаёт короткоживущий тикет для подключения к WebSocket
func (s *AuthService) GenerateWSTicket(userID uint) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", storeError("get user", err)
	}
	return s.jwtService.GenerateWSTicket(user.ID, user.Username, user.Role)
}

func (s *AuthService) issue(user *entity.User) (*AuthResult, error) {
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token for user #%d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
