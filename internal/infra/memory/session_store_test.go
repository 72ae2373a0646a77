package memory

import (
	"context"
	"testing"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	first := app.NewSession("s1", "u1", domain.Category{ID: "world"}, nil, app.SessionOptions{})
	second := app.NewSession("s2", "u1", domain.Category{ID: "world"}, nil, app.SessionOptions{})

	if prev := store.Put("u1", first); prev != nil {
		t.Fatalf("expected no previous session")
	}
	if got, ok := store.Get("u1"); !ok || got != first {
		t.Fatalf("expected first session present")
	}
	if prev := store.Put("u1", second); prev != first {
		t.Fatalf("expected first session to be replaced")
	}
	if id, ok := store.ActiveSessionID(context.Background(), "u1"); !ok || id != "s2" {
		t.Fatalf("expected s2 active, got %q", id)
	}

	store.Delete("u1", first)
	if got, ok := store.Get("u1"); !ok || got != second {
		t.Fatalf("stale delete must not remove the newer session")
	}
	store.Delete("u1", second)
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed")
	}
	if _, ok := store.ActiveSessionID(context.Background(), "u1"); ok {
		t.Fatalf("expected no active session id")
	}
}
