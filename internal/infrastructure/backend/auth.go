package backend

import (
	"context"
	"net/http"

	"github.com/condaura/portal/internal/core/domain"
)

// AuthService implements ports.AuthService and ports.PasswordService.
type AuthService struct {
	c *Client
}

func NewAuthService(c *Client) *AuthService {
	return &AuthService{c: c}
}

// registerRequest is the backend's sign-up shape. Usernames are generated
// server-side.
type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Password2  string `json:"password2"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

// Login calls POST /users/login/.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := s.c.sendJSON(ctx, "users.login", http.MethodPost, "/users/login/", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register calls POST /users/register/.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	req := registerRequest{
		Email:      reg.Email,
		Password:   reg.Password,
		Password2:  reg.PasswordConfirm,
		FirstName:  reg.FirstName,
		LastName:   reg.LastName,
		Department: reg.Department,
	}
	var out domain.AuthResult
	if err := s.c.sendJSON(ctx, "users.register", http.MethodPost, "/users/register/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword calls POST /users/forgot-password/.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return s.c.sendJSON(ctx, "users.forgot_password", http.MethodPost, "/users/forgot-password/", body, nil)
}

// ResetPassword calls POST /users/reset-password/.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return s.c.sendJSON(ctx, "users.reset_password", http.MethodPost, "/users/reset-password/", body, nil)
}
