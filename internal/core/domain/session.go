package domain

// Session is the persisted pair of bearer credential and cached profile.
// User is present if and only if Credential is present.
type Session struct {
	Credential string
	User       *UserProfile
}

// Phase is the lifecycle position of a session controller.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseAnonymous
	PhaseSubmitting
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseAnonymous:
		return "anonymous"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthState is a read-only snapshot of a controller. IsAuthenticated is
// always derived from User.
type AuthState struct {
	User            *UserProfile `json:"user"`
	Loading         bool         `json:"loading"`
	Error           string       `json:"error,omitempty"`
	IsAuthenticated bool         `json:"is_authenticated"`
	Phase           Phase        `json:"-"`
}
