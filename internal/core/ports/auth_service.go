package ports

import (
	"context"

	"github.com/condaura/portal/internal/core/domain"
)

// AuthService is the backend authentication contract used by the session
// controller.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
}

// PasswordService covers the password recovery endpoints.
type PasswordService interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}
