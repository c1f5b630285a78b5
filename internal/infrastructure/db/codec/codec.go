// Package codec holds the two-key layout shared by every session store
// backend.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/condaura/portal/internal/core/domain"
)

const (
	KeyCredential = "auth_token"
	KeyUser       = "user"
)

// EncodeProfile serialises the profile as stored under KeyUser.
func EncodeProfile(p *domain.UserProfile) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(b), nil
}

// DecodeSession rebuilds a session from the raw values of both keys.
// A missing key yields (nil, nil); an unreadable profile yields an error
// wrapping domain.ErrCorruptSession.
func DecodeSession(credential string, hasCredential bool, rawUser string, hasUser bool) (*domain.Session, error) {
	if !hasCredential || !hasUser {
		return nil, nil
	}
	var user *domain.UserProfile
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSession, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: empty profile", domain.ErrCorruptSession)
	}
	if credential == "" {
		return nil, fmt.Errorf("%w: empty credential", domain.ErrCorruptSession)
	}
	return &domain.Session{Credential: credential, User: user}, nil
}
