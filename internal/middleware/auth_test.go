package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/pkg/jwt"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)

	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func newAuthRouter(tokenManager *jwt.TokenManager) (*gin.Engine, *models.Actor) {
	var seen models.Actor
	router := gin.New()
	router.GET("/protected", middleware.ActorMiddleware(tokenManager), func(c *gin.Context) {
		actor, ok := middleware.GetActor(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "actor missing"})
			return
		}
		seen = actor
		c.JSON(http.StatusOK, gin.H{"userId": actor.UserID})
	})
	return router, &seen
}

func TestActorMiddleware_ValidToken(t *testing.T) {
	tokenManager := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)
	router, seen := newAuthRouter(tokenManager)

	token, err := tokenManager.GenerateToken("user-1", "mentor", "mentor@example.com", "Marcus Mentor")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", seen.UserID)
	assert.Equal(t, models.RoleMentor, seen.Role)
	assert.Equal(t, "mentor@example.com", seen.Email)
	assert.Equal(t, "Marcus Mentor", seen.Name)
}

func TestActorMiddleware_SessionCookieFallback(t *testing.T) {
	tokenManager := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)
	router, seen := newAuthRouter(tokenManager)

	token, err := tokenManager.GenerateToken("user-2", "mentee", "mentee@example.com", "Maria Mentee")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-2", seen.UserID)
}

func TestActorMiddleware_MissingToken(t *testing.T) {
	tokenManager := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)
	router, _ := newAuthRouter(tokenManager)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorMiddleware_InvalidToken(t *testing.T) {
	tokenManager := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)
	router, _ := newAuthRouter(tokenManager)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorMiddleware_WrongSecretRejected(t *testing.T) {
	tokenManager := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)
	router, _ := newAuthRouter(tokenManager)

	other := jwt.NewTokenManager("other-secret", "mentorhub-test", 1)
	token, err := other.GenerateToken("user-1", "mentor", "mentor@example.com", "Marcus")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorMiddleware_UnknownRoleRejected(t *testing.T) {
	tokenManager := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)
	router, _ := newAuthRouter(tokenManager)

	token, err := tokenManager.GenerateToken("user-1", "superuser", "x@example.com", "X")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	tokenManager := jwt.NewTokenManager("test-secret", "mentorhub-test", 1)

	router := gin.New()
	router.GET("/mentor-only",
		middleware.ActorMiddleware(tokenManager),
		middleware.RequireRole(models.RoleMentor),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		role   string
		status int
	}{
		{"mentor", http.StatusOK},
		{"admin", http.StatusOK},
		{"mentee", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			token, err := tokenManager.GenerateToken("user-1", tt.role, "x@example.com", "X")
			require.NoError(t, err)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/mentor-only", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
