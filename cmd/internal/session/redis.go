package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cardbox/cmd/internal/atproto"
)

const redisKeyPrefix = "cardbox:session:"

// RedisStore keeps session records in a shared Redis so multiple instances
// (or restarts) see the same logins. Client handles are still per-process;
// a handle is rebuilt from the record on first use after a restart.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client. ttl bounds record lifetime
// and should match the cookie max-age.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

// DialRedis connects from a redis:// URL and verifies the connection.
func DialRedis(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

// Get looks up a session record by id.
func (s *RedisStore) Get(ctx context.Context, id string) (atproto.Session, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return atproto.Session{}, false, nil
	}
	if err != nil {
		return atproto.Session{}, false, err
	}
	var rec atproto.Session
	if err := json.Unmarshal(raw, &rec); err != nil {
		// A corrupt entry is indistinguishable from absence to callers.
		return atproto.Session{}, false, nil
	}
	return rec, true, nil
}

// Put upserts a session record with the store TTL.
func (s *RedisStore) Put(ctx context.Context, id string, sess atproto.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+id, raw, s.ttl).Err()
}

// Delete removes a session record. Deleting an absent id is a no-op.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}

// Ping reports backend reachability for readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
