package webapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"envisonet-server-go/internal/domain/session"
)

// TokenCookie is the cookie the browser client authenticates with when
// it cannot set an Authorization header (audio element downloads).
const TokenCookie = "envisonet_token"

type JWTClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Auth issues and verifies tokens and backs them with the session store
// so logout revokes them immediately.
type Auth struct {
	secret   []byte
	ttl      time.Duration
	sessions session.Store
}

func NewAuth(secret string, ttl time.Duration, sessions session.Store) *Auth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: sessions,
	}
}

// GenerateToken signs a JWT and registers the session.
func (a *Auth) GenerateToken(c *gin.Context, userID uint, username string) (string, error) {
	now := time.Now()
	expires := now.Add(a.ttl)
	claims := JWTClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", err
	}

	err = a.sessions.Save(c.Request.Context(), session.Session{
		Token:     token,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: &expires,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Revoke drops the session behind a token.
func (a *Auth) Revoke(c *gin.Context, token string) error {
	return a.sessions.Remove(c.Request.Context(), token)
}

// VerifyToken parses and validates a JWT.
func (a *Auth) VerifyToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(*jwt.Token) (interface{}, error) {
			return a.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// Middleware authenticates a request from either the Authorization
// header or the token cookie, and rejects tokens whose session has been
// revoked.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		claims, err := a.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		if _, err := a.sessions.Get(c.Request.Context(), token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("token", token)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		return token[7:]
	}
	if token != "" {
		return token
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentUser reads the identity the middleware stored on the context.
func CurrentUser(c *gin.Context) (uint, string) {
	userID, _ := c.Get("user_id")
	username, _ := c.Get("username")
	id, _ := userID.(uint)
	name, _ := username.(string)
	return id, name
}
