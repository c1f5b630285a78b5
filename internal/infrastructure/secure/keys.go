// Package secure derives the portal's secrets and uses them to sign the
// browser cookie and seal credentials at rest.
package secure

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const minSecretLen = 16

var ErrWeakSecret = errors.New("session secret too short")

// Keys are the independent subkeys derived from SESSION_SECRET.
type Keys struct {
	Cookie []byte
	Seal   [32]byte
}

// DeriveKeys expands secret into a cookie-signing key and a sealing key.
func DeriveKeys(secret string) (Keys, error) {
	if len(secret) < minSecretLen {
		return Keys{}, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, minSecretLen)
	}

	var k Keys
	k.Cookie = make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("portal cookie v1")), k.Cookie); err != nil {
		return Keys{}, fmt.Errorf("derive cookie key: %w", err)
	}
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("portal seal v1")), k.Seal[:]); err != nil {
		return Keys{}, fmt.Errorf("derive seal key: %w", err)
	}
	return k, nil
}
