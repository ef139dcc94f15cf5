package session

import (
	"context"
	"sync"

	"cardbox/cmd/internal/atproto"
)

// MemoryStore is the default in-process backend. A restart logs every
// session out; that is the documented contract of the memory model.
type MemoryStore struct {
	mu   sync.RWMutex
	sess map[string]atproto.Session
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sess: make(map[string]atproto.Session)}
}

// Get looks up a session record by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (atproto.Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return atproto.Session{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sess[id]
	return rec, ok, nil
}

// Put upserts a session record.
func (s *MemoryStore) Put(ctx context.Context, id string, sess atproto.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sess[id] = sess
	s.mu.Unlock()
	return nil
}

// Delete removes a session record. Deleting an absent id is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sess, id)
	s.mu.Unlock()
	return nil
}

// Close releases nothing for the in-memory backend.
func (s *MemoryStore) Close() error { return nil }
