package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
	"github.com/yourusername/mastery-api/pkg/auth"
)

// ============================================================================
// Моки для тестирования AuthService
// ============================================================================

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) CreateWithProgress(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(role string) ([]entity.User, error) {
	args := m.Called(role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func newTestAuthService(t *testing.T) (*AuthService, *MockUserRepository, *auth.JWTService) {
	jwtService, err := auth.NewJWTService("auth-service-test-secret", 5, 60)
	require.NoError(t, err)
	repo := new(MockUserRepository)
	svc, err := NewAuthService(repo, jwtService)
	require.NoError(t, err)
	return svc, repo, jwtService
}

// ============================================================================
// Register
// ============================================================================

func TestRegister_StudentGetsProgressRecord(t *testing.T) {
	svc, repo, jwtService := newTestAuthService(t)
	repo.On("GetByUsername", "alice").Return(nil, apperrors.ErrNotFound)
	repo.On("CreateWithProgress", mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) { args.Get(0).(*entity.User).ID = 11 }).
		Return(nil)

	res, err := svc.Register(RegisterInput{Username: "  alice ", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, uint(11), res.User.ID)
	assert.Equal(t, entity.RoleStudent, res.User.Role, "Роль по умолчанию - студент")
	claims, err := jwtService.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(11), claims.UserID)
	repo.AssertNotCalled(t, "Create", mock.Anything)
	repo.AssertExpectations(t)
}

func TestRegister_InstructorWithoutProgress(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.On("GetByUsername", "teacher").Return(nil, apperrors.ErrNotFound)
	repo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)

	res, err := svc.Register(RegisterInput{Username: "teacher", Password: "secret1", Role: entity.RoleInstructor})

	require.NoError(t, err)
	assert.Equal(t, entity.RoleInstructor, res.User.Role)
	repo.AssertNotCalled(t, "CreateWithProgress", mock.Anything)
}

func TestRegister_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		input RegisterInput
	}{
		{"короткое имя", RegisterInput{Username: "ab", Password: "secret1"}},
		{"короткий пароль", RegisterInput{Username: "alice", Password: "123"}},
		{"неизвестная роль", RegisterInput{Username: "alice", Password: "secret1", Role: "admin"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newTestAuthService(t)

			_, err := svc.Register(tc.input)

			assert.ErrorIs(t, err, apperrors.ErrValidation)
			repo.AssertNotCalled(t, "GetByUsername", mock.Anything)
		})
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.On("GetByUsername", "alice").Return(&entity.User{ID: 1, Username: "alice"}, nil)

	_, err := svc.Register(RegisterInput{Username: "alice", Password: "secret1"})

	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRegister_UniqueViolationRace(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.On("GetByUsername", "alice").Return(nil, apperrors.ErrNotFound)
	repo.On("CreateWithProgress", mock.Anything).Return(apperrors.ErrConflict)

	_, err := svc.Register(RegisterInput{Username: "alice", Password: "secret1"})

	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_StoreFailure(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.On("GetByUsername", "alice").Return(nil, errors.New("connection refused"))

	_, err := svc.Register(RegisterInput{Username: "alice", Password: "secret1"})

	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

// ============================================================================
// Login
// ============================================================================

func hashedUser(t *testing.T, password string) *entity.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &entity.User{ID: 5, Username: "bob", Password: string(hash), Role: entity.RoleStudent}
}

func TestLogin_Success(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.On("GetByUsername", "bob").Return(hashedUser(t, "correct-horse"), nil)

	res, err := svc.Login("bob", "correct-horse")

	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, uint(5), res.User.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.On("GetByUsername", "bob").Return(hashedUser(t, "correct-horse"), nil)

	_, err := svc.Login("bob", "battery-staple")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.On("GetByUsername", "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Login("ghost", "whatever")

	assert.ErrorIs(t, err, ErrInvalidCredentials, "Неизвестный пользователь неотличим от неверного пароля")
}

func TestGenerateWSTicket(t *testing.T) {
	svc, repo, jwtService := newTestAuthService(t)
	repo.On("GetByID", uint(3)).Return(&entity.User{ID: 3, Username: "carol", Role: entity.RoleInstructor}, nil)

	ticket, err := svc.GenerateWSTicket(3)

	require.NoError(t, err)
	claims, err := jwtService.ParseWSTicket(ticket)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleInstructor, claims.Role)
}
