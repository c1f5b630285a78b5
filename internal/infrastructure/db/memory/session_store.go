// Package memory provides a process-local session store used in tests and
// single-instance development setups.
package memory

import (
	"context"
	"sync"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
	"github.com/condaura/portal/internal/infrastructure/db/codec"
)

// Factory holds all scopes in a single map.
type Factory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewFactory returns an empty in-memory store factory.
func NewFactory() *Factory {
	return &Factory{data: make(map[string]map[string]string)}
}

// Scope implements ports.SessionStoreFactory.
func (f *Factory) Scope(browserID string) ports.SessionStore {
	return &Store{f: f, scope: browserID}
}

// Store is one browser's view of the factory.
type Store struct {
	f     *Factory
	scope string
}

// Save implements ports.SessionStore.
func (s *Store) Save(_ context.Context, credential string, profile *domain.UserProfile) error {
	raw, err := codec.EncodeProfile(profile)
	if err != nil {
		return err
	}
	s.Put(codec.KeyCredential, credential)
	s.Put(codec.KeyUser, raw)
	return nil
}

// Load implements ports.SessionStore.
func (s *Store) Load(_ context.Context) (*domain.Session, error) {
	cred, hasCred := s.Get(codec.KeyCredential)
	user, hasUser := s.Get(codec.KeyUser)
	return codec.DecodeSession(cred, hasCred, user, hasUser)
}

// Clear implements ports.SessionStore.
func (s *Store) Clear(_ context.Context) error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	delete(s.f.data, s.scope)
	return nil
}

// Put writes a raw value, bypassing encoding.
func (s *Store) Put(key, value string) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	m, ok := s.f.data[s.scope]
	if !ok {
		m = make(map[string]string)
		s.f.data[s.scope] = m
	}
	m[key] = value
}

// Get reads a raw value.
func (s *Store) Get(key string) (string, bool) {
	s.f.mu.RLock()
	defer s.f.mu.RUnlock()
	v, ok := s.f.data[s.scope][key]
	return v, ok
}

// Len returns the number of keys held in this scope.
func (s *Store) Len() int {
	s.f.mu.RLock()
	defer s.f.mu.RUnlock()
	return len(s.f.data[s.scope])
}
