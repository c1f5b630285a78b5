package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
	"github.com/condaura/portal/internal/infrastructure/db/memory"
)

// flakyStore fails the first failures loads, then serves the wrapped session.
// Loads also fail once their context is done.
type flakyStore struct {
	stubStore
	mu       sync.Mutex
	failures int
	loads    int
}

func (s *flakyStore) Load(ctx context.Context) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.loads++
	fail := s.loads <= s.failures
	s.mu.Unlock()
	if fail {
		return nil, errors.New("redis: connection refused")
	}
	return s.stubStore.Load(ctx)
}

type singleStoreFactory struct{ store ports.SessionStore }

func (f singleStoreFactory) Scope(string) ports.SessionStore { return f.store }

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newRegistry(auth *stubAuth) (*ControllerRegistry, *memory.Factory, *fakeClock) {
	stores := memory.NewFactory()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	r := NewControllerRegistry(stores, auth, zerolog.Nop())
	r.now = clock.now
	return r, stores, clock
}

func TestControllerRegistry_GetReusesController(t *testing.T) {
	r, _, _ := newRegistry(&stubAuth{})
	ctx := context.Background()

	a := r.Get(ctx, "browser-a")
	if a != r.Get(ctx, "browser-a") {
		t.Fatalf("expected the same controller for the same browser")
	}
	if a == r.Get(ctx, "browser-b") {
		t.Fatalf("expected distinct controllers per browser")
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 live controllers, got %d", r.Len())
	}
}

func TestControllerRegistry_RehydratesFromScope(t *testing.T) {
	r, stores, _ := newRegistry(&stubAuth{})
	ctx := context.Background()

	profile := &domain.UserProfile{ID: 3, Email: "c@d.com", Role: domain.RoleDAO}
	if err := stores.Scope("browser-a").Save(ctx, "tok3", profile); err != nil {
		t.Fatalf("save: %v", err)
	}

	if s := r.Get(ctx, "browser-a").State(); !s.IsAuthenticated || s.User.ID != 3 {
		t.Fatalf("expected browser-a restored, got %+v", s)
	}
	if r.Get(ctx, "browser-b").State().IsAuthenticated {
		t.Fatalf("browser-b must not see browser-a's session")
	}
}

func TestControllerRegistry_StoreFailureIsRetried(t *testing.T) {
	store := &flakyStore{failures: 1}
	store.session = &domain.Session{Credential: "tok1", User: adminResult("tok1").User}
	r := NewControllerRegistry(singleStoreFactory{store}, &stubAuth{}, zerolog.Nop())
	ctx := context.Background()

	if s := r.Get(ctx, "browser-a").State(); s.IsAuthenticated {
		t.Fatalf("expected anonymous while the store is down, got %+v", s)
	}
	if r.Len() != 0 {
		t.Fatalf("expected unreadable session not to be cached, got %d", r.Len())
	}
	if store.clears != 0 {
		t.Errorf("expected stored session kept, cleared %d times", store.clears)
	}

	s := r.Get(ctx, "browser-a").State()
	if !s.IsAuthenticated || s.User.Role != domain.RoleAdmin {
		t.Fatalf("expected session restored once the store recovers, got %+v", s)
	}
	if r.Len() != 1 {
		t.Errorf("expected restored controller cached, got %d", r.Len())
	}
}

func TestControllerRegistry_AbortedRequestStillRehydrates(t *testing.T) {
	store := &flakyStore{}
	store.session = &domain.Session{Credential: "tok1", User: adminResult("tok1").User}
	r := NewControllerRegistry(singleStoreFactory{store}, &stubAuth{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Get(ctx, "browser-a")

	if s := r.Get(context.Background(), "browser-a").State(); !s.IsAuthenticated {
		t.Fatalf("expected session restored despite the aborted first request, got %+v", s)
	}
}

func TestControllerRegistry_ForgetRebuildsFromStore(t *testing.T) {
	auth := &stubAuth{loginFn: func(context.Context, domain.Credentials) (*domain.AuthResult, error) {
		return adminResult("tok1"), nil
	}}
	r, _, _ := newRegistry(auth)
	ctx := context.Background()

	first := r.Get(ctx, "browser-a")
	if err := first.Login(ctx, domain.Credentials{Email: "a@b.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	r.Forget("browser-a")
	if r.Len() != 0 {
		t.Fatalf("expected empty registry after Forget")
	}

	second := r.Get(ctx, "browser-a")
	if second == first {
		t.Fatalf("expected a fresh controller")
	}
	if second.Credential() != "tok1" {
		t.Errorf("expected credential restored from store, got %q", second.Credential())
	}
}

func TestControllerRegistry_SweepDropsIdle(t *testing.T) {
	r, _, clock := newRegistry(&stubAuth{})
	ctx := context.Background()

	r.Get(ctx, "old")
	clock.t = clock.t.Add(20 * time.Minute)
	r.Get(ctx, "fresh")
	clock.t = clock.t.Add(15 * time.Minute)

	if n := r.Sweep(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 live controller, got %d", r.Len())
	}
}

func TestControllerRegistry_SweepKeepsSubmitting(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	auth := &stubAuth{loginFn: func(context.Context, domain.Credentials) (*domain.AuthResult, error) {
		close(entered)
		<-release
		return adminResult("tok1"), nil
	}}
	r, _, clock := newRegistry(auth)
	ctx := context.Background()

	ctrl := r.Get(ctx, "busy")
	done := make(chan error, 1)
	go func() { done <- ctrl.Login(ctx, domain.Credentials{}) }()
	<-entered

	clock.t = clock.t.Add(time.Hour)
	if n := r.Sweep(time.Minute); n != 0 {
		t.Errorf("expected submitting controller kept, removed %d", n)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("login: %v", err)
	}
	if n := r.Sweep(time.Minute); n != 1 {
		t.Errorf("expected controller removed once settled, removed %d", n)
	}
}

func TestControllerRegistry_RunStopsOnCancel(t *testing.T) {
	r, _, _ := newRegistry(&stubAuth{})
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond, time.Hour)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
