package domain

import "strings"

// Role is the business role assigned to a user by the backend.
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleBackOffice  Role = "Back office"
	RoleFrontOffice Role = "Front office"
	RoleDAO         Role = "DAO"
	RoleDigitalTeam Role = "Digital Team"
)

// UserProfile is the identity returned by login/registration. It is replaced
// wholesale on every successful authentication and never mutated locally.
type UserProfile struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       Role   `json:"role"`
	IsStaff    bool   `json:"is_staff,omitempty"`
	Department string `json:"department,omitempty"`
}

// DisplayName returns "First Last", falling back to the email.
func (u *UserProfile) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// IsAdmin reports whether u may use administrator features: the Admin role
// (compared case-insensitively) or the staff flag.
func IsAdmin(u *UserProfile) bool {
	if u == nil {
		return false
	}
	return strings.EqualFold(string(u.Role), string(RoleAdmin)) || u.IsStaff
}

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up form payload. PasswordConfirm is checked
// client-side and forwarded as the backend's password2 field.
type Registration struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	Department      string
}

// AuthResult is the body returned by the login and register endpoints.
type AuthResult struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}
