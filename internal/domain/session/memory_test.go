package session

import (
	"context"
	"testing"
	"time"

	"envisonet-server-go/internal/platform/config"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(config.SessionConfig{TTL: time.Hour})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	sess := Session{Token: "tok-1", UserID: 1, Username: "alice"}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.ExpiresAt == nil {
		t.Fatal("expected TTL expiry to be assigned")
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0] != "tok-1" {
		t.Fatalf("unexpected list: %v", list)
	}

	if err := store.Remove(ctx, "tok-1"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := store.Get(ctx, "tok-1"); err == nil {
		t.Fatal("expected missing session after removal")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(config.SessionConfig{TTL: time.Hour})
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	past := time.Now().Add(-time.Minute)
	if err := store.Save(ctx, Session{Token: "old", ExpiresAt: &past}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if _, err := store.Get(ctx, "old"); err == nil {
		t.Fatal("expected expired session error")
	}

	if err := store.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["total"].(int) != 0 {
		t.Fatalf("expected cleanup to drop expired session, stats: %v", stats)
	}
}

func TestMemoryStoreRejectsEmptyToken(t *testing.T) {
	store := NewMemory(config.SessionConfig{})
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})

	if err := store.Save(context.Background(), Session{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(config.SessionConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	_ = store.Close(context.Background())

	if _, err := New(config.SessionConfig{Driver: "etcd"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
