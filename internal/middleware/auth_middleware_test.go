package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService, err := auth.NewJWTService("middleware-test-secret", 5, 60)
	require.NoError(t, err)
	m := NewAuthMiddleware(jwtService)

	r := gin.New()
	echo := func(c *gin.Context) {
		id, _ := UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": c.GetString(ContextRole)})
	}
	r.GET("/me", m.RequireAuth(), echo)
	r.GET("/student", m.RequireAuth(), m.StudentOnly(), echo)
	r.GET("/instructor", m.RequireAuth(), m.InstructorOnly(), echo)
	r.GET("/no-auth-instructor", m.InstructorOnly(), echo)
	return r, jwtService
}

func tokenFor(t *testing.T, svc *auth.JWTService, id uint, role string) string {
	t.Helper()
	token, err := svc.GenerateToken(&entity.User{ID: id, Username: "user", Role: role})
	require.NoError(t, err)
	return token
}

func do(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ============================================================================
// RequireAuth
// ============================================================================

func TestRequireAuth_BearerAndLegacyHeader(t *testing.T) {
	r, svc := newTestRouter(t)
	token := tokenFor(t, svc, 7, entity.RoleStudent)

	w := do(r, "/me", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)

	w = do(r, "/me", map[string]string{LegacyTokenHeader: token})
	assert.Equal(t, http.StatusOK, w.Code, "Токен из x-auth-token тоже принимается")
}

func TestRequireAuth_Rejects(t *testing.T) {
	r, svc := newTestRouter(t)
	ticket, err := svc.GenerateWSTicket(7, "user", entity.RoleStudent)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		headers map[string]string
	}{
		{"без токена", nil},
		{"неверный формат", map[string]string{"Authorization": "Token abc"}},
		{"мусор", map[string]string{"Authorization": "Bearer not-a-jwt"}},
		{"тикет вместо токена", map[string]string{"Authorization": "Bearer " + ticket}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, "/me", tc.headers)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

// ============================================================================
// Роли
// ============================================================================

func TestRoleGuards(t *testing.T) {
	r, svc := newTestRouter(t)
	student := map[string]string{"Authorization": "Bearer " + tokenFor(t, svc, 1, entity.RoleStudent)}
	instructor := map[string]string{"Authorization": "Bearer " + tokenFor(t, svc, 2, entity.RoleInstructor)}

	assert.Equal(t, http.StatusOK, do(r, "/student", student).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/student", instructor).Code)
	assert.Equal(t, http.StatusOK, do(r, "/instructor", instructor).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/instructor", student).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/no-auth-instructor", nil).Code)
}

// ============================================================================
// ExtractUintParam и RateLimiter
// ============================================================================

func TestExtractUintParam(t *testing.T) {
	r := gin.New()
	r.GET("/topics/:topicId", ExtractUintParam("topicId", "topic_id"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetUint("topic_id")})
	})

	w := do(r, "/topics/12", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":12`)

	for _, bad := range []string{"abc", "-1", "0", "4294967296"} {
		w := do(r, "/topics/"+bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Contains(t, w.Body.String(), `"error_type":"invalid_id"`, bad)
		assert.Contains(t, w.Body.String(), "topicId must be a positive integer", bad)
	}
}

func TestRateLimiter_WithoutRedisAllows(t *testing.T) {
	r := gin.New()
	r.GET("/login", NewRateLimiter(nil).Limit(AuthRateLimitConfig(1, time.Minute)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do(r, "/login", nil).Code)
	}
}

func TestAuthRateLimitConfigDefaults(t *testing.T) {
	cfg := AuthRateLimitConfig(0, 0)

	assert.Equal(t, 5, cfg.MaxRequests)
	assert.Equal(t, time.Minute, cfg.Window)
}
