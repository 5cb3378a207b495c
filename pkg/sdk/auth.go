// pkg/sdk/auth.go
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
)

// LoginPath is the backend path of the credential-issuing endpoint.
const LoginPath = "/auth/login"

// Authenticator exchanges a username and password for a credential.
// Session.Login delegates credential acquisition to it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*Credentials, error)
}

// AuthClient talks to the backend login endpoint directly, outside the Gateway,
// so a login attempt never carries a stale bearer header or triggers a logout.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Authenticator = (*AuthClient)(nil)

// NewAuthClient creates an AuthClient for the API at baseURL.
func NewAuthClient(baseURL string, optFns ...ClientOption) *AuthClient {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = defaultHTTPClient()
	}
	return &AuthClient{baseURL: baseURL, httpClient: opts.HTTPClient}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login posts the credentials to the login endpoint.
//
// Failures are returned as *AuthError:
//   - 4xx: ErrAuthentication with the server's detail, or "Authentication failed"
//   - 5xx: ErrAuthServiceUnavailable with the server's detail, or "Authentication service unavailable"
//   - transport failure: ErrAuthServiceUnavailable with the generic message
func (c *AuthClient) Login(ctx context.Context, username, password string) (*Credentials, error) {
	loginURL, err := url.JoinPath(c.baseURL, LoginPath)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	payload, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{
			Kind:    ErrAuthServiceUnavailable,
			Message: "Authentication service unavailable",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{
			Kind:    ErrAuthServiceUnavailable,
			Message: "Authentication service unavailable",
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodPost,
			Path:       LoginPath,
			Body:       body,
			Detail:     errorDetail(body),
		}
		kind, message := ErrAuthentication, "Authentication failed"
		if resp.StatusCode >= 500 {
			kind, message = ErrAuthServiceUnavailable, "Authentication service unavailable"
		}
		if apiErr.Detail != "" {
			message = apiErr.Detail
		}
		return nil, &AuthError{Kind: kind, Message: message, Err: apiErr}
	}

	var creds Credentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return nil, &AuthError{
			Kind:    ErrInvalidServerCredential,
			Message: "Authentication failed: unreadable login response",
			Err:     err,
		}
	}
	if creds.Credential() == "" {
		return nil, &AuthError{
			Kind:    ErrInvalidServerCredential,
			Message: "Authentication failed: login response did not include a token",
			Err:     errors.New("empty credential"),
		}
	}

	return &creds, nil
}

// errorDetail extracts the "detail" field of a structured error body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	switch d := payload.Detail.(type) {
	case string:
		return d
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// defaultHTTPClient returns a pooled client without an overall timeout; callers bound calls with their context.
func defaultHTTPClient() *http.Client {
	return cleanhttp.DefaultPooledClient()
}
