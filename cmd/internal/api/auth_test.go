package api

import (
	"context"
	"log/slog"
	"testing"

	"cardbox/cmd/internal/atproto"
	"cardbox/cmd/internal/session"
)

func TestResolveSessionStates(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	t.Run("empty id is unauthenticated", func(t *testing.T) {
		dial := newFakeDialer()
		res, err := resolveSession(ctx, "", session.NewMemoryStore(), session.NewClientCache[Client](), dial, log)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.state != stateUnauthenticated {
			t.Errorf("state: got %d, want unauthenticated", res.state)
		}
	})

	t.Run("unknown id is unauthenticated", func(t *testing.T) {
		dial := newFakeDialer()
		res, err := resolveSession(ctx, "sid-unknown", session.NewMemoryStore(), session.NewClientCache[Client](), dial, log)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.state != stateUnauthenticated {
			t.Errorf("state: got %d, want unauthenticated", res.state)
		}
		if dial.resumeCalls != 0 {
			t.Errorf("resume attempted for unknown id: %d calls", dial.resumeCalls)
		}
	})

	t.Run("cached client skips resume", func(t *testing.T) {
		dial := newFakeDialer()
		clients := session.NewClientCache[Client]()
		cached := &fakeClient{repo: dial.repo, sess: dial.session("alice.bsky.social")}
		clients.Put("sid-1", cached)

		res, err := resolveSession(ctx, "sid-1", session.NewMemoryStore(), clients, dial, log)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.state != stateAuthenticated {
			t.Fatalf("state: got %d, want authenticated", res.state)
		}
		if res.client != Client(cached) {
			t.Error("resolution should return the cached client")
		}
		if dial.resumeCalls != 0 {
			t.Errorf("resume attempted despite cache hit: %d calls", dial.resumeCalls)
		}
	})

	t.Run("stored record resumes and caches", func(t *testing.T) {
		dial := newFakeDialer()
		store := session.NewMemoryStore()
		clients := session.NewClientCache[Client]()
		if err := store.Put(ctx, "sid-1", dial.session("alice.bsky.social")); err != nil {
			t.Fatalf("seed store: %v", err)
		}

		res, err := resolveSession(ctx, "sid-1", store, clients, dial, log)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.state != stateAuthenticated {
			t.Fatalf("state: got %d, want authenticated", res.state)
		}
		if dial.resumeCalls != 1 {
			t.Errorf("resume calls: got %d, want 1", dial.resumeCalls)
		}
		if _, ok := clients.Get("sid-1"); !ok {
			t.Error("resumed client should be cached")
		}

		// Second resolution hits the cache.
		if _, err := resolveSession(ctx, "sid-1", store, clients, dial, log); err != nil {
			t.Fatalf("resolve again: %v", err)
		}
		if dial.resumeCalls != 1 {
			t.Errorf("resume calls after cache fill: got %d, want 1", dial.resumeCalls)
		}
	})

	t.Run("resume failure is expired", func(t *testing.T) {
		dial := newFakeDialer()
		dial.resumeErr = atproto.ErrExpired
		store := session.NewMemoryStore()
		if err := store.Put(ctx, "sid-1", dial.session("alice.bsky.social")); err != nil {
			t.Fatalf("seed store: %v", err)
		}

		res, err := resolveSession(ctx, "sid-1", store, session.NewClientCache[Client](), dial, log)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.state != stateExpired {
			t.Errorf("state: got %d, want expired", res.state)
		}
	})
}

func TestSessionSurvivesClientCacheLoss(t *testing.T) {
	h, dial, mux := newTestHandler(t)
	cookie := loginAlice(t, mux)

	// Simulate a restart: the process-local client cache is gone, the
	// store record survives.
	h.clients.Delete(cookie.Value)

	rr := doRequest(t, mux, "GET", "/api/collections", nil, cookie)
	if rr.Code != 200 {
		t.Fatalf("got status %d body %s", rr.Code, rr.Body.String())
	}
	if dial.resumeCalls != 1 {
		t.Errorf("resume calls: got %d, want 1", dial.resumeCalls)
	}
}

func TestExpiredHandleEvictedAndResumed(t *testing.T) {
	_, dial, mux := newTestHandler(t)
	cookie := loginAlice(t, mux)

	// The handle cached at login starts failing with lapsed tokens. The
	// store record still holds a good refresh token.
	dial.lastClient.opErr = atproto.ErrExpired

	rr := doRequest(t, mux, "GET", "/api/collections", nil, cookie)
	if rr.Code != 401 {
		t.Fatalf("broken handle: got status %d, want 401", rr.Code)
	}
	if msg := decodeMap(t, rr)["error"]; msg != "Session expired" {
		t.Errorf("error: got %v, want Session expired", msg)
	}

	// The failing handle must have been evicted, so the next request
	// resumes from the stored record and succeeds.
	rr = doRequest(t, mux, "GET", "/api/collections", nil, cookie)
	if rr.Code != 200 {
		t.Fatalf("after eviction: got status %d body %s", rr.Code, rr.Body.String())
	}
	if dial.resumeCalls != 1 {
		t.Errorf("resume calls: got %d, want 1", dial.resumeCalls)
	}
}

func TestExpiredSessionDistinctFromMissing(t *testing.T) {
	h, dial, mux := newTestHandler(t)
	cookie := loginAlice(t, mux)

	h.clients.Delete(cookie.Value)
	dial.resumeErr = atproto.ErrExpired

	rr := doRequest(t, mux, "GET", "/api/collections", nil, cookie)
	if rr.Code != 401 {
		t.Fatalf("got status %d, want 401", rr.Code)
	}
	if msg := decodeMap(t, rr)["error"]; msg != "Session expired" {
		t.Errorf("error: got %v, want Session expired", msg)
	}
}
