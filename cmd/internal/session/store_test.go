package session

import (
	"context"
	"testing"

	"cardbox/cmd/internal/atproto"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get missing = ok=%v err=%v, want absent without error", ok, err)
	}

	rec := atproto.Session{Did: "did:plc:abc", Handle: "alice.bsky.social", AccessJwt: "a", RefreshJwt: "r"}
	if err := s.Put(ctx, "sid-1", rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(ctx, "sid-1")
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v", ok, err)
	}
	if got != rec {
		t.Fatalf("Get = %+v, want %+v", got, rec)
	}

	// Upsert replaces (the token-refresh update path).
	rec.AccessJwt = "a2"
	if err := s.Put(ctx, "sid-1", rec); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, _, _ = s.Get(ctx, "sid-1")
	if got.AccessJwt != "a2" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "sid-1"); ok {
		t.Fatalf("record survived delete")
	}
	// Idempotent delete.
	if err := s.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestMemoryStoreHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	if _, _, err := s.Get(ctx, "x"); err == nil {
		t.Fatalf("expected context error")
	}
	if err := s.Put(ctx, "x", atproto.Session{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestClientCache(t *testing.T) {
	c := NewClientCache[string]()
	if _, ok := c.Get("sid"); ok {
		t.Fatalf("expected miss")
	}
	c.Put("sid", "handle-1")
	c.Put("sid", "handle-2") // last write wins
	if v, ok := c.Get("sid"); !ok || v != "handle-2" {
		t.Fatalf("Get = %q ok=%v", v, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d", c.Len())
	}
	c.Delete("sid")
	c.Delete("sid")
	if _, ok := c.Get("sid"); ok {
		t.Fatalf("handle survived delete")
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for range 64 {
		id := NewID()
		if id == "" {
			t.Fatalf("empty id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
