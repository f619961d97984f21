// Package session tracks which issued tokens are still live, so logout
// can revoke a token before its JWT expiry.
package session

import (
	"context"
	"fmt"
	"time"

	"envisonet-server-go/internal/platform/config"
)

// Session is one authenticated login.
type Session struct {
	Token     string     `json:"token"`
	UserID    uint       `json:"user_id"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Store defines the behaviour required by the auth middleware.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (Session, error)
	Remove(ctx context.Context, token string) error
	List(ctx context.Context) ([]string, error)
	CleanupExpired(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// New selects a store driver from the configuration.
func New(cfg config.SessionConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg), nil
	case "redis":
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unknown session driver: %s", cfg.Driver)
	}
}
