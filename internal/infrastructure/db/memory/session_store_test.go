package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/infrastructure/db/codec"
)

func TestStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	s := f.Scope("browser-a")

	sess, err := s.Load(ctx)
	if err != nil || sess != nil {
		t.Fatalf("expected empty store, got %+v, %v", sess, err)
	}

	if err := s.Save(ctx, "tok1", &domain.UserProfile{ID: 1, Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("save: %v", err)
	}
	sess, err = s.Load(ctx)
	if err != nil || sess == nil {
		t.Fatalf("load: %+v, %v", sess, err)
	}
	if sess.Credential != "tok1" || sess.User.ID != 1 {
		t.Errorf("unexpected session: %+v", sess)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if sess, _ := s.Load(ctx); sess != nil {
		t.Errorf("expected empty after clear, got %+v", sess)
	}
}

func TestStore_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()

	if err := f.Scope("a").Save(ctx, "tok-a", &domain.UserProfile{ID: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if sess, _ := f.Scope("b").Load(ctx); sess != nil {
		t.Fatalf("scope b saw scope a's session")
	}
	if err := f.Scope("b").Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if sess, _ := f.Scope("a").Load(ctx); sess == nil {
		t.Fatalf("clearing scope b removed scope a")
	}
}

func TestStore_CorruptProfile(t *testing.T) {
	s := NewFactory().Scope("a").(*Store)
	s.Put(codec.KeyCredential, "tok")
	s.Put(codec.KeyUser, "{broken")

	_, err := s.Load(context.Background())
	if !errors.Is(err, domain.ErrCorruptSession) {
		t.Fatalf("expected ErrCorruptSession, got %v", err)
	}
}

func TestStore_HalfWrittenSessionIsAnonymous(t *testing.T) {
	s := NewFactory().Scope("a").(*Store)
	s.Put(codec.KeyCredential, "tok")

	sess, err := s.Load(context.Background())
	if err != nil || sess != nil {
		t.Fatalf("expected (nil, nil), got %+v, %v", sess, err)
	}
	if s.Len() != 1 {
		t.Errorf("Load must not modify the store")
	}
}
