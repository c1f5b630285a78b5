package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

const (
	loginFallback    = "Failed to login. Please check your credentials."
	registerFallback = "Failed to register. Please try again."
)

// restoreTimeout bounds rehydration, which runs detached from the request.
const restoreTimeout = 5 * time.Second

var errIncompleteAuth = errors.New("authentication response missing token or user")

// SessionController is the single writer of one browser's AuthState.
// Readers take snapshots through State or Subscribe.
type SessionController struct {
	store ports.SessionStore
	auth  ports.AuthService
	log   zerolog.Logger

	mu         sync.Mutex
	phase      domain.Phase
	user       *domain.UserProfile
	credential string
	errMsg     string
	// restored is false when the store could not be read; such a controller
	// must not be cached.
	restored bool
	// gen is bumped by Logout so that a login resolving afterwards is dropped.
	gen     uint64
	subs    map[int]chan domain.AuthState
	nextSub int
}

// NewSessionController builds a controller and synchronously rehydrates it
// from store. A corrupt stored session is cleared and the controller starts
// anonymous. Cancelling ctx does not abort rehydration.
func NewSessionController(ctx context.Context, store ports.SessionStore, auth ports.AuthService, log zerolog.Logger) *SessionController {
	c := &SessionController{
		store: store,
		auth:  auth,
		log:   log,
		phase: domain.PhaseInitializing,
		subs:  make(map[int]chan domain.AuthState),
	}
	c.rehydrate(ctx)
	return c
}

func (c *SessionController) rehydrate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrCorruptSession):
		c.log.Warn().Err(err).Msg("discarding corrupt session")
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("failed to clear corrupt session")
		}
		c.phase = domain.PhaseAnonymous
		c.restored = true
	case err != nil:
		c.log.Warn().Err(err).Msg("failed to restore session")
		c.phase = domain.PhaseAnonymous
	case sess == nil || sess.User == nil || sess.Credential == "":
		c.phase = domain.PhaseAnonymous
		c.restored = true
	default:
		c.restored = true
		c.user = sess.User
		c.credential = sess.Credential
		c.phase = domain.PhaseAuthenticated
	}
}

// State returns a snapshot of the current AuthState.
func (c *SessionController) State() domain.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Credential returns the bearer credential of the authenticated user, or "".
func (c *SessionController) Credential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credential
}

// Login authenticates against the backend. Only one Login or Register may be
// in flight; a second call fails with domain.ErrOperationInProgress.
func (c *SessionController) Login(ctx context.Context, creds domain.Credentials) error {
	return c.submit(ctx, "login", loginFallback, func(ctx context.Context) (*domain.AuthResult, error) {
		return c.auth.Login(ctx, creds)
	})
}

// Register creates an account and signs it in. Same concurrency rules as Login.
func (c *SessionController) Register(ctx context.Context, reg domain.Registration) error {
	return c.submit(ctx, "register", registerFallback, func(ctx context.Context) (*domain.AuthResult, error) {
		return c.auth.Register(ctx, reg)
	})
}

func (c *SessionController) submit(
	ctx context.Context,
	op, fallback string,
	call func(context.Context) (*domain.AuthResult, error),
) error {
	c.mu.Lock()
	if c.phase == domain.PhaseSubmitting || c.phase == domain.PhaseInitializing {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", op, domain.ErrOperationInProgress)
	}
	prev := c.phase
	gen := c.gen
	c.phase = domain.PhaseSubmitting
	c.errMsg = ""
	c.publishLocked()
	c.mu.Unlock()

	res, err := call(ctx)
	if err == nil && (res == nil || res.Token == "" || res.User == nil) {
		err = errIncompleteAuth
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		c.log.Info().Str("op", op).Msg("dropping result of operation superseded by logout")
		return fmt.Errorf("%s: %w", op, domain.ErrSessionReset)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		c.phase = prev
		c.publishLocked()
		return ctxErr
	}

	if err == nil {
		if saveErr := c.store.Save(ctx, res.Token, res.User); saveErr != nil {
			err = fmt.Errorf("save session: %w", saveErr)
		}
	}

	if err != nil {
		c.phase = prev
		c.errMsg = failureMessage(err, fallback)
		c.publishLocked()
		c.log.Warn().Err(err).Str("op", op).Msg("authentication failed")
		return fmt.Errorf("%s: %w", op, err)
	}

	c.user = res.User
	c.credential = res.Token
	c.phase = domain.PhaseAuthenticated
	c.errMsg = ""
	c.publishLocked()

	c.log.Info().Str("op", op).Int64("user_id", res.User.ID).Str("role", string(res.User.Role)).Msg("session established")
	return nil
}

// Logout clears the stored session and moves to Anonymous. The in-memory
// state is cleared even when the store fails; the store error is returned.
func (c *SessionController) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Clear(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to clear stored session")
	}

	c.gen++
	c.user = nil
	c.credential = ""
	c.phase = domain.PhaseAnonymous
	c.publishLocked()

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ClearError drops the stored failure message. It does nothing when no
// message is set.
func (c *SessionController) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errMsg == "" {
		return
	}
	c.errMsg = ""
	c.publishLocked()
}

// Subscribe returns a channel that always holds the latest state change and
// a function that releases it. Slow readers only miss intermediate states.
func (c *SessionController) Subscribe() (<-chan domain.AuthState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan domain.AuthState, 1)
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

func (c *SessionController) snapshotLocked() domain.AuthState {
	var user *domain.UserProfile
	if c.user != nil {
		u := *c.user
		user = &u
	}
	return domain.AuthState{
		User:            user,
		Loading:         c.phase == domain.PhaseInitializing || c.phase == domain.PhaseSubmitting,
		Error:           c.errMsg,
		IsAuthenticated: user != nil,
		Phase:           c.phase,
	}
}

func (c *SessionController) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	s := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// failureMessage picks the user-facing message for a failed operation.
func failureMessage(err error, fallback string) string {
	var pe domain.PublicError
	if errors.As(err, &pe) {
		if msg := strings.TrimSpace(pe.PublicMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}
