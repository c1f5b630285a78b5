package domain

import "errors"

var (
	ErrOperationInProgress = errors.New("operation in progress")
	ErrCorruptSession      = errors.New("corrupt session")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrForbidden           = errors.New("access forbidden")
	ErrInvalidExportFormat = errors.New("invalid export format")
)

// ErrSessionReset is returned by a login or register call whose result was
// discarded because the session was logged out while it was in flight.
var ErrSessionReset = errors.New("session reset during operation")

// PublicError is implemented by errors that carry a message safe to show to
// the end user, such as a backend validation payload.
type PublicError interface {
	error
	PublicMessage() string
}
