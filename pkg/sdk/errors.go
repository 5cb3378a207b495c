package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedCredential is returned when a stored or issued credential cannot be decoded
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrNotAuthenticated is returned by Session.Token when no credential is held
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAuthentication is returned when the login endpoint rejects the supplied credentials
	ErrAuthentication = errors.New("authentication failed")

	// ErrInvalidServerCredential is returned when the login endpoint issues a credential that fails decode
	ErrInvalidServerCredential = errors.New("server issued an invalid credential")

	// ErrAuthServiceUnavailable is returned when the login endpoint cannot be reached
	ErrAuthServiceUnavailable = errors.New("authentication service unavailable")

	// ErrUnauthorized matches API errors carrying a 401 status
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden matches API errors carrying a 403 status
	ErrForbidden = errors.New("forbidden")

	// ErrTokenNotFound is returned by a TokenStore when the key is absent
	ErrTokenNotFound = errors.New("token not found")
)

// AuthError is the failure surfaced by Session.Login.
// Message is suitable for display; Kind is one of the Err* sentinels above.
type AuthError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

// Is reports whether target is the error kind. An invalid server credential
// is also an authentication failure.
func (e *AuthError) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrInvalidServerCredential && target == ErrAuthentication
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError carries a non-2xx response returned through the Gateway.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
	// Detail is the "detail" field of a structured error body, if any.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// AsAPIError returns the APIError in err's chain, or nil.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
