package ports

import (
	"context"

	"github.com/condaura/portal/internal/core/domain"
)

// SessionStore persists the credential and cached profile of one browser.
type SessionStore interface {
	// Save writes both keys. The profile shape is not validated.
	Save(ctx context.Context, credential string, profile *domain.UserProfile) error
	// Load returns (nil, nil) when either key is missing and an error
	// wrapping domain.ErrCorruptSession when the stored profile cannot be
	// decoded.
	Load(ctx context.Context) (*domain.Session, error)
	// Clear removes both keys. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// SessionStoreFactory hands out stores scoped to a browser identifier.
type SessionStoreFactory interface {
	Scope(browserID string) SessionStore
}
