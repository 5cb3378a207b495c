package sdk

const (
	// DefaultLoginPath is the login view.
	DefaultLoginPath = "/login"
	// DefaultHomePath is the view an authenticated user lands on.
	DefaultHomePath = "/dashboard"
)

// Outcome is the result kind of a guard decision.
type Outcome int

const (
	// Allow lets the transition proceed unchanged.
	Allow Outcome = iota
	// RedirectToLogin sends an anonymous user to the login view.
	RedirectToLogin
	// RedirectToHome sends an authenticated user away from the login view.
	RedirectToHome
)

func (o Outcome) String() string {
	switch o {
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToHome:
		return "redirect-to-home"
	default:
		return "allow"
	}
}

// Decision is the guard's verdict on one view transition.
// Target is the redirect destination, empty when Outcome is Allow.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Decide is the navigation policy. The originally requested path is not remembered.
func Decide(requiresAuth, authenticated bool, path, loginPath, homePath string) Decision {
	switch {
	case requiresAuth && !authenticated:
		return Decision{Outcome: RedirectToLogin, Target: loginPath}
	case path == loginPath && authenticated:
		return Decision{Outcome: RedirectToHome, Target: homePath}
	default:
		return Decision{Outcome: Allow}
	}
}

// AuthState is the session view the guard consults. *Session implements it.
type AuthState interface {
	IsAuthenticated() bool
}

// Guard binds the navigation policy to a session.
type Guard struct {
	session   AuthState
	loginPath string
	homePath  string
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithGuardPaths overrides the login and home views.
func WithGuardPaths(loginPath, homePath string) GuardOption {
	return func(g *Guard) {
		g.loginPath = loginPath
		g.homePath = homePath
	}
}

// NewGuard creates a Guard consulting session.
func NewGuard(session AuthState, opts ...GuardOption) *Guard {
	g := &Guard{
		session:   session,
		loginPath: DefaultLoginPath,
		homePath:  DefaultHomePath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check decides the transition to path, whose matched route is route.
func (g *Guard) Check(route Route, path string) Decision {
	return Decide(route.RequiresAuth, g.session.IsAuthenticated(), path, g.loginPath, g.homePath)
}

// LoginPath returns the login view path.
func (g *Guard) LoginPath() string { return g.loginPath }

// HomePath returns the default authenticated view path.
func (g *Guard) HomePath() string { return g.homePath }
