package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Roles(t *testing.T) {
	assert.True(t, IsValidRole(RoleStudent))
	assert.True(t, IsValidRole(RoleInstructor))
	assert.False(t, IsValidRole("admin"), "Роль admin не поддерживается")
	assert.False(t, IsValidRole(""))

	assert.True(t, (&User{Role: RoleInstructor}).IsInstructor())
	assert.False(t, (&User{Role: RoleStudent}).IsInstructor())
}

func TestUser_PasswordRoundTrip(t *testing.T) {
	user := &User{Username: "teacher1", Password: "chalk-and-board", Role: RoleInstructor}

	require.NoError(t, user.BeforeSave(nil))
	hashed := user.Password
	assert.NotEqual(t, "chalk-and-board", hashed)
	assert.True(t, user.CheckPassword("chalk-and-board"))
	assert.False(t, user.CheckPassword("wrong"))

	// Повторное сохранение (например, при смене роли) не перехеширует пароль
	require.NoError(t, user.BeforeSave(nil))
	assert.Equal(t, hashed, user.Password)
}

func TestUser_PasswordNotSerialized(t *testing.T) {
	raw, err := json.Marshal(User{ID: 3, Username: "alice", Password: "$2a$10$hash", Role: RoleStudent})

	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "$2a$10$hash")
	assert.Contains(t, string(raw), `"role":"student"`)
}
