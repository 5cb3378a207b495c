package sdk

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// State is the authentication state of a Session.
type State int

const (
	// StateAnonymous means no credential is held.
	StateAnonymous State = iota
	// StateAuthenticated means a decoded credential and its identity are held.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Identity is the user derived from the session credential.
type Identity struct {
	ID          int      `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Navigator receives the view transition a Session requests on logout.
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

// Session owns the client's authentication state. It is the single source of
// truth for the credential and the identity decoded from it; the two are always
// replaced together.
//
// Mutations are last-writer-wins: a Logout racing a Login whose network call
// completes afterwards is overwritten by that Login.
type Session struct {
	store         TokenStore
	auth          Authenticator
	navigator     Navigator
	logger        hclog.Logger
	metrics       *Metrics
	now           func() time.Time
	loginView     string
	enforceExpiry bool

	mu       sync.RWMutex
	token    string
	claims   *Claims
	identity *Identity
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithNavigator sets the navigator notified on logout.
func WithNavigator(n Navigator) SessionOption {
	return func(s *Session) { s.navigator = n }
}

// WithLogger sets the session logger.
func WithLogger(logger hclog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithMetrics records login attempts on m.
func WithMetrics(m *Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithLoginView sets the view path requested on logout. Defaults to "/login".
func WithLoginView(path string) SessionOption {
	return func(s *Session) { s.loginView = path }
}

// WithExpiryEnforcement makes IsAuthenticated compare the exp claim with the clock.
// Off by default: expiry is otherwise only detected when the server answers 401.
func WithExpiryEnforcement(enabled bool) SessionOption {
	return func(s *Session) { s.enforceExpiry = enabled }
}

// NewSession creates an anonymous session persisting its credential in store and
// acquiring credentials through auth. Call Initialize to restore a stored credential.
func NewSession(store TokenStore, auth Authenticator, opts ...SessionOption) *Session {
	s := &Session{
		store:     store,
		auth:      auth,
		logger:    hclog.NewNullLogger(),
		now:       time.Now,
		loginView: DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores the session from the stored credential. A credential that
// fails to decode is purged and the session stays anonymous. It never fails.
func (s *Session) Initialize(ctx context.Context) {
	token, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, ErrTokenNotFound) {
			s.logger.Warn("failed to read stored credential, starting anonymous", "error", err)
		}
		s.clear()
		return
	}

	claims, err := DecodeToken(token)
	if err != nil {
		s.logger.Warn("stored credential is invalid, discarding", "error", err)
		if err := s.store.Delete(ctx, TokenKey); err != nil {
			s.logger.Error("failed to purge invalid credential", "error", err)
		}
		s.clear()
		return
	}

	s.set(token, claims)
	s.logger.Debug("restored session", "subject", claims.Subject, "role", claims.Role)
}

// Login acquires, validates and persists a new credential. On failure the
// session is left unchanged and an *AuthError is returned.
func (s *Session) Login(ctx context.Context, username, password string) error {
	creds, err := s.auth.Login(ctx, username, password)
	if err != nil {
		s.metrics.loginAttempt("failure")
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return authErr
		}
		return &AuthError{Kind: ErrAuthServiceUnavailable, Message: "Authentication service unavailable", Err: err}
	}

	token := creds.Credential()
	claims, err := DecodeToken(token)
	if err != nil {
		s.metrics.loginAttempt("invalid_credential")
		s.logger.Error("login endpoint issued an undecodable credential", "error", err)
		return &AuthError{
			Kind:    ErrInvalidServerCredential,
			Message: "Authentication failed: server issued an invalid token",
			Err:     err,
		}
	}

	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		s.metrics.loginAttempt("failure")
		return &AuthError{
			Kind:    ErrAuthentication,
			Message: "Authentication failed: could not persist credential",
			Err:     err,
		}
	}

	s.set(token, claims)
	s.metrics.loginAttempt("success")
	s.logger.Info("logged in", "subject", claims.Subject, "role", claims.Role)
	return nil
}

// Logout discards the credential and requests the login view. It is safe to
// call from any state and any number of times.
func (s *Session) Logout(ctx context.Context) {
	if err := s.store.Delete(ctx, TokenKey); err != nil {
		s.logger.Error("failed to delete stored credential", "error", err)
	}
	s.clear()
	s.logger.Debug("logged out")
	if s.navigator != nil {
		s.navigator.Redirect(s.loginView)
	}
}

// IsAuthenticated reports whether a credential is held. With expiry
// enforcement enabled an expired credential does not count.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticatedLocked()
}

// State returns the current authentication state.
func (s *Session) State() State {
	if s.IsAuthenticated() {
		return StateAuthenticated
	}
	return StateAnonymous
}

// Role returns the identity role, or "" when anonymous.
func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return ""
	}
	return s.identity.Role
}

// HasPermission reports whether the authenticated identity holds p.
func (s *Session) HasPermission(p string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return false
	}
	return s.claims.HasPermission(p)
}

// Identity returns a copy of the current identity, or nil when anonymous.
func (s *Session) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return nil
	}
	id := *s.identity
	id.Permissions = append([]string(nil), s.identity.Permissions...)
	return &id
}

// Claims returns a copy of the decoded claims, or nil when none are held.
// Unlike Identity it ignores expiry enforcement.
func (s *Session) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return nil
	}
	c := *s.claims
	c.Permissions = append([]string(nil), s.claims.Permissions...)
	return &c
}

// Expired reports whether the held credential's exp claim has passed.
// It is false when anonymous.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims != nil && s.claims.Expired(s.now())
}

// Token returns the current credential as a bearer token, making the session
// an oauth2.TokenSource. It returns ErrNotAuthenticated when anonymous.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticatedLocked() {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken: s.token,
		TokenType:   "Bearer",
		Expiry:      s.claims.ExpiresAt,
	}, nil
}

var _ oauth2.TokenSource = (*Session)(nil)

func (s *Session) authenticatedLocked() bool {
	if s.identity == nil {
		return false
	}
	return !s.enforceExpiry || !s.claims.Expired(s.now())
}

func (s *Session) set(token string, claims *Claims) {
	identity := claims.Identity()
	s.mu.Lock()
	s.token, s.claims, s.identity = token, claims, identity
	s.mu.Unlock()
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token, s.claims, s.identity = "", nil, nil
	s.mu.Unlock()
}
