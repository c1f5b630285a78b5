package service

import "github.com/condaura/portal/internal/core/domain"

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Policy selects which checks a guarded route applies.
type Policy int

const (
	PolicyAuthenticated Policy = iota
	PolicyAdmin
)

func (p Policy) String() string {
	if p == PolicyAdmin {
		return "admin"
	}
	return "authenticated"
}

// DecisionKind is what a guarded route should do with a request.
type DecisionKind int

const (
	DecisionRender DecisionKind = iota
	DecisionPlaceholder
	DecisionRedirect
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionPlaceholder:
		return "placeholder"
	case DecisionRedirect:
		return "redirect"
	default:
		return "render"
	}
}

// Decision is the outcome of Authorize. Location is set for redirects only.
type Decision struct {
	Kind     DecisionKind
	Location string
}

// Authorize is a pure function of state and policy.
//
// While loading it never redirects. Anonymous users go to the login page
// without a return-to target. Authenticated non-admins hitting an admin
// route go to the dashboard.
func Authorize(state domain.AuthState, policy Policy) Decision {
	if state.Loading {
		return Decision{Kind: DecisionPlaceholder}
	}
	if !state.IsAuthenticated {
		return Decision{Kind: DecisionRedirect, Location: LoginPath}
	}
	if policy == PolicyAdmin && !domain.IsAdmin(state.User) {
		return Decision{Kind: DecisionRedirect, Location: DashboardPath}
	}
	return Decision{Kind: DecisionRender}
}
