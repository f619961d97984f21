package webapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envisonet-server-go/internal/domain/session"
	"envisonet-server-go/internal/platform/config"
)

func newTestAuth(t *testing.T) (*Auth, session.Store) {
	t.Helper()
	store := session.NewMemory(config.SessionConfig{TTL: time.Hour})
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return NewAuth("test-secret", time.Hour, store), store
}

func authRouter(auth *Auth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	secured := engine.Group("")
	secured.Use(auth.Middleware())
	secured.GET("/whoami", func(c *gin.Context) {
		id, name := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "username": name})
	})
	return engine
}

func issueToken(t *testing.T, auth *Auth, engine *gin.Engine) string {
	t.Helper()
	var token string
	engine.POST("/issue", func(c *gin.Context) {
		var err error
		token, err = auth.GenerateToken(c, 7, "alice")
		require.NoError(t, err)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/issue", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, token)
	return token
}

func TestMiddleware_BearerToken(t *testing.T) {
	auth, _ := newTestAuth(t)
	engine := authRouter(auth)
	token := issueToken(t, auth, engine)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestMiddleware_CookieToken(t *testing.T) {
	auth, _ := newTestAuth(t)
	engine := authRouter(auth)
	token := issueToken(t, auth, engine)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_MissingToken(t *testing.T) {
	auth, _ := newTestAuth(t)
	engine := authRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_GarbageToken(t *testing.T) {
	auth, _ := newTestAuth(t)
	engine := authRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_RevokedSession(t *testing.T) {
	auth, store := newTestAuth(t)
	engine := authRouter(auth)
	token := issueToken(t, auth, engine)

	require.NoError(t, store.Remove(context.Background(), token))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	// The JWT is still cryptographically valid but the session is gone.
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	auth, _ := newTestAuth(t)
	engine := authRouter(auth)
	token := issueToken(t, auth, engine)

	other := NewAuth("different-secret", time.Hour, nil)
	_, err := other.VerifyToken(token)
	assert.Error(t, err)
}
