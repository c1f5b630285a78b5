package secure

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

const nonceSize = 24

// SealedStores wraps a store factory so credentials are encrypted with
// NaCl secretbox before they reach the backend. Profiles are stored as is.
type SealedStores struct {
	inner ports.SessionStoreFactory
	key   [32]byte
}

func NewSealedStores(inner ports.SessionStoreFactory, key [32]byte) *SealedStores {
	return &SealedStores{inner: inner, key: key}
}

// Scope implements ports.SessionStoreFactory.
func (f *SealedStores) Scope(browserID string) ports.SessionStore {
	return &sealedStore{inner: f.inner.Scope(browserID), key: &f.key}
}

type sealedStore struct {
	inner ports.SessionStore
	key   *[32]byte
}

func (s *sealedStore) Save(ctx context.Context, credential string, profile *domain.UserProfile) error {
	sealed, err := Seal(s.key, credential)
	if err != nil {
		return err
	}
	return s.inner.Save(ctx, sealed, profile)
}

func (s *sealedStore) Load(ctx context.Context) (*domain.Session, error) {
	sess, err := s.inner.Load(ctx)
	if err != nil || sess == nil {
		return sess, err
	}
	cred, err := Open(s.key, sess.Credential)
	if err != nil {
		return nil, err
	}
	sess.Credential = cred
	return sess, nil
}

func (s *sealedStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

// Seal encrypts plaintext and returns base64(nonce || box).
func Seal(key *[32]byte, plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("seal: read nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Any failure is reported as a corrupt session.
func Open(key *[32]byte, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: credential encoding: %v", domain.ErrCorruptSession, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: credential too short", domain.ErrCorruptSession)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, key)
	if !ok {
		return "", fmt.Errorf("%w: credential does not authenticate", domain.ErrCorruptSession)
	}
	return string(plain), nil
}
