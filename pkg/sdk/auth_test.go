package sdk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/jeremysavoy/derby-director/pkg/sdk/sdktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthClientLogin(t *testing.T) {
	server := sdktest.NewServer(t)
	client := sdk.NewAuthClient(server.APIURL())

	creds, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "bearer", creds.TokenType)

	claims, err := sdk.DecodeToken(creds.Credential())
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, []string{"manage_races"}, claims.Permissions)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/api/auth/login", requests[0].Path)
	assert.Empty(t, requests[0].Authorization)
}

func TestAuthClientLoginFailures(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*sdktest.Server)
		password    string
		wantKind    error
		wantMessage string
	}{
		{
			name:        "wrong password",
			password:    "wrong",
			wantKind:    sdk.ErrAuthentication,
			wantMessage: "Invalid username or password",
		},
		{
			name: "server error with detail",
			setup: func(s *sdktest.Server) {
				s.Fail(sdk.LoginPath, http.StatusInternalServerError, "database unavailable")
			},
			password:    "secret",
			wantKind:    sdk.ErrAuthServiceUnavailable,
			wantMessage: "database unavailable",
		},
		{
			name: "locked account",
			setup: func(s *sdktest.Server) {
				s.Fail(sdk.LoginPath, http.StatusForbidden, "Account locked")
			},
			password:    "secret",
			wantKind:    sdk.ErrAuthentication,
			wantMessage: "Account locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := sdktest.NewServer(t)
			if tt.setup != nil {
				tt.setup(server)
			}

			_, err := sdk.NewAuthClient(server.APIURL()).Login(context.Background(), "alice", tt.password)
			require.Error(t, err)

			var authErr *sdk.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantMessage, authErr.Message)
		})
	}
}

func TestAuthClientLoginGenericMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantKind    error
		wantMessage string
	}{
		{name: "client error", status: http.StatusBadRequest, wantKind: sdk.ErrAuthentication, wantMessage: "Authentication failed"},
		{name: "server error", status: http.StatusBadGateway, wantKind: sdk.ErrAuthServiceUnavailable, wantMessage: "Authentication service unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<html>upstream error</html>"))
			}))
			defer server.Close()

			_, err := sdk.NewAuthClient(server.URL).Login(context.Background(), "alice", "secret")

			var authErr *sdk.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantMessage, authErr.Message)

			apiErr := sdk.AsAPIError(err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestAuthClientLoginUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := sdk.NewAuthClient(url).Login(context.Background(), "alice", "secret")

	var authErr *sdk.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, sdk.ErrAuthServiceUnavailable)
	assert.NotErrorIs(t, err, sdk.ErrAuthentication)
	assert.Equal(t, "Authentication service unavailable", authErr.Message)
}

func TestAuthClientLoginResponseShapes(t *testing.T) {
	token := adminToken()

	tests := []struct {
		name     string
		body     any
		wantErr  error
		wantCred string
	}{
		{name: "access_token", body: map[string]string{"access_token": token, "token_type": "bearer"}, wantCred: token},
		{name: "legacy token field", body: map[string]string{"token": token}, wantCred: token},
		{name: "access_token preferred", body: map[string]string{"access_token": token, "token": "stale"}, wantCred: token},
		{name: "no credential", body: map[string]string{"token_type": "bearer"}, wantErr: sdk.ErrInvalidServerCredential},
		{name: "not json", body: "ok", wantErr: sdk.ErrInvalidServerCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, sdk.LoginPath, r.URL.Path)

				var req map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "alice", req["username"])
				assert.Equal(t, "secret", req["password"])

				w.Header().Set("Content-Type", "application/json")
				if s, ok := tt.body.(string); ok {
					_, _ = w.Write([]byte(s))
					return
				}
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			creds, err := sdk.NewAuthClient(server.URL).Login(context.Background(), "alice", "secret")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCred, creds.Credential())
		})
	}
}

func TestAuthClientUsesSuppliedHTTPClient(t *testing.T) {
	server := sdktest.NewServer(t)

	var used bool
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used = true
		return http.DefaultTransport.RoundTrip(r)
	})}

	_, err := sdk.NewAuthClient(server.APIURL(), sdk.WithHTTPClient(httpClient)).Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.True(t, used)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
