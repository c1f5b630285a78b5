package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
	"github.com/condaura/portal/internal/infrastructure/db/codec"
)

// SessionStores hands out Redis-backed session stores.
// Key format: session:<browser_id>:<auth_token|user>
type SessionStores struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStores wraps client. A zero ttl stores sessions without expiry.
func NewSessionStores(client *redis.Client, ttl time.Duration) *SessionStores {
	return &SessionStores{client: client, ttl: ttl}
}

// Scope implements ports.SessionStoreFactory.
func (f *SessionStores) Scope(browserID string) ports.SessionStore {
	return &SessionStore{client: f.client, ttl: f.ttl, prefix: "session:" + browserID + ":"}
}

// SessionStore is one browser's session in Redis.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// Save writes both keys in a single MULTI/EXEC.
func (s *SessionStore) Save(ctx context.Context, credential string, profile *domain.UserProfile) error {
	raw, err := codec.EncodeProfile(profile)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(codec.KeyCredential), credential, s.ttl)
		pipe.Set(ctx, s.key(codec.KeyUser), raw, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

// Load implements ports.SessionStore.
func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	vals, err := s.client.MGet(ctx, s.key(codec.KeyCredential), s.key(codec.KeyUser)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load session: %w", err)
	}
	cred, hasCred := vals[0].(string)
	user, hasUser := vals[1].(string)
	return codec.DecodeSession(cred, hasCred, user, hasUser)
}

// Clear implements ports.SessionStore. DEL on missing keys is a no-op.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(codec.KeyCredential), s.key(codec.KeyUser)).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(name string) string {
	return s.prefix + name
}
