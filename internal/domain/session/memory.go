package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"envisonet-server-go/internal/platform/config"
)

type memoryStore struct {
	items       map[string]Session
	mutex       sync.RWMutex
	ttl         time.Duration
	cleanupFreq time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemory builds an in-memory session store.
func NewMemory(cfg config.SessionConfig) Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cleanup := cfg.Memory.Cleanup
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}
	s := &memoryStore{
		items:       make(map[string]Session),
		ttl:         ttl,
		cleanupFreq: cleanup,
		stop:        make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

func (s *memoryStore) gcLoop() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Save(_ context.Context, sess Session) error {
	if sess.Token == "" {
		return fmt.Errorf("session token required")
	}
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.ExpiresAt == nil && s.ttl > 0 {
		exp := now.Add(s.ttl)
		sess.ExpiresAt = &exp
	}

	s.mutex.Lock()
	s.items[sess.Token] = sess
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, token string) (Session, error) {
	s.mutex.RLock()
	sess, ok := s.items[token]
	s.mutex.RUnlock()
	if !ok {
		return Session{}, fmt.Errorf("session not found")
	}
	if sess.ExpiresAt != nil && time.Now().After(*sess.ExpiresAt) {
		return Session{}, fmt.Errorf("session expired")
	}
	return sess, nil
}

func (s *memoryStore) Remove(_ context.Context, token string) error {
	s.mutex.Lock()
	delete(s.items, token)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]string, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tokens := make([]string, 0, len(s.items))
	for token, sess := range s.items {
		if sess.ExpiresAt == nil || now.Before(*sess.ExpiresAt) {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) error {
	now := time.Now()
	s.mutex.Lock()
	for token, sess := range s.items {
		if sess.ExpiresAt != nil && now.After(*sess.ExpiresAt) {
			delete(s.items, token)
		}
	}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	total := len(s.items)
	active := 0
	for _, sess := range s.items {
		if sess.ExpiresAt == nil || now.Before(*sess.ExpiresAt) {
			active++
		}
	}
	return map[string]any{
		"type":        "memory",
		"total":       total,
		"active":      active,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
