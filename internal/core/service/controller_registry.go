package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

type registryEntry struct {
	ctrl     *SessionController
	lastSeen time.Time
}

// ControllerRegistry owns one SessionController per browser. Controllers are
// rebuilt from the session store on demand, so dropping an idle entry loses
// no state.
type ControllerRegistry struct {
	stores ports.SessionStoreFactory
	auth   ports.AuthService
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewControllerRegistry returns an empty registry.
func NewControllerRegistry(stores ports.SessionStoreFactory, auth ports.AuthService, log zerolog.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		stores:  stores,
		auth:    auth,
		log:     log,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the controller for browserID, rehydrating a new one from the
// store on first use. When the store cannot be read the controller is
// returned anonymous but not cached, so the next request retries.
func (r *ControllerRegistry) Get(ctx context.Context, browserID string) *SessionController {
	r.mu.Lock()
	if e, ok := r.entries[browserID]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.ctrl
	}
	r.mu.Unlock()

	// Rehydrate outside the lock; first writer wins if two requests race.
	ctrl := NewSessionController(ctx, r.stores.Scope(browserID), r.auth,
		r.log.With().Str("browser_id", browserID).Logger())

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[browserID]; ok {
		e.lastSeen = r.now()
		return e.ctrl
	}
	if !ctrl.restored {
		return ctrl
	}
	r.entries[browserID] = &registryEntry{ctrl: ctrl, lastSeen: r.now()}
	return ctrl
}

// Forget drops the controller for browserID.
func (r *ControllerRegistry) Forget(browserID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, browserID)
}

// Len returns the number of live controllers.
func (r *ControllerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops controllers unused for longer than idle. Controllers with an
// operation in flight are kept. It returns the number removed.
func (r *ControllerRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.After(cutoff) {
			continue
		}
		if e.ctrl.State().Phase == domain.PhaseSubmitting {
			continue
		}
		delete(r.entries, id)
		removed++
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (r *ControllerRegistry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug().Int("removed", n).Int("live", r.Len()).Msg("swept idle session controllers")
			}
		}
	}
}
