package sdk_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/jeremysavoy/derby-director/pkg/sdk/sdktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name        string
		token       string
		wantSubject string
		wantRole    string
		wantPerms   []string
	}{
		{
			name:        "numeric subject",
			token:       sdktest.Token(1, "admin", []string{"manage_races"}, exp),
			wantSubject: "1",
			wantRole:    "admin",
			wantPerms:   []string{"manage_races"},
		},
		{
			name:        "string subject",
			token:       sdktest.Token("alice", "judge", []string{"record_results", "view_reports"}, exp),
			wantSubject: "alice",
			wantRole:    "judge",
			wantPerms:   []string{"record_results", "view_reports"},
		},
		{
			name:        "empty permission set",
			token:       sdktest.Token("7", "viewer", []string{}, exp),
			wantSubject: "7",
			wantRole:    "viewer",
			wantPerms:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := sdk.DecodeToken(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, claims.Subject)
			assert.Equal(t, tt.wantRole, claims.Role)
			assert.ElementsMatch(t, tt.wantPerms, claims.Permissions)
			assert.True(t, claims.ExpiresAt.Equal(exp), "expiry %v != %v", claims.ExpiresAt, exp)
		})
	}
}

func TestDecodeTokenMalformed(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "three garbage segments", token: sdktest.Malformed},
		{name: "two segments", token: "abc.def"},
		{name: "not base64 payload", token: "eyJhbGciOiJIUzI1NiJ9.!!!.sig"},
		{name: "missing sub", token: sdktest.Sign(jwt.MapClaims{"role": "admin", "permissions": []string{}, "exp": exp})},
		{name: "empty sub", token: sdktest.Sign(jwt.MapClaims{"sub": "", "role": "admin", "permissions": []string{}, "exp": exp})},
		{name: "fractional sub", token: sdktest.Sign(jwt.MapClaims{"sub": 1.5, "role": "admin", "permissions": []string{}, "exp": exp})},
		{name: "object sub", token: sdktest.Sign(jwt.MapClaims{"sub": map[string]any{"id": 1}, "role": "admin", "permissions": []string{}, "exp": exp})},
		{name: "missing exp", token: sdktest.Sign(jwt.MapClaims{"sub": "1", "role": "admin", "permissions": []string{}})},
		{name: "string exp", token: sdktest.Sign(jwt.MapClaims{"sub": "1", "role": "admin", "permissions": []string{}, "exp": "tomorrow"})},
		{name: "missing role", token: sdktest.Sign(jwt.MapClaims{"sub": "1", "permissions": []string{}, "exp": exp})},
		{name: "missing permissions", token: sdktest.Sign(jwt.MapClaims{"sub": "1", "role": "admin", "exp": exp})},
		{name: "null permissions", token: sdktest.Sign(jwt.MapClaims{"sub": "1", "role": "admin", "permissions": nil, "exp": exp})},
		{name: "permissions not a list", token: sdktest.Sign(jwt.MapClaims{"sub": "1", "role": "admin", "permissions": "manage_races", "exp": exp})},
		{name: "numeric role", token: sdktest.Sign(jwt.MapClaims{"sub": "1", "role": 3, "permissions": []string{}, "exp": exp})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := sdk.DecodeToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, sdk.ErrMalformedCredential)
			assert.Nil(t, claims)
		})
	}
}

func TestDecodeTokenIgnoresSignature(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":         "1",
		"role":        "admin",
		"permissions": []string{"manage_races"},
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-key"))
	require.NoError(t, err)

	decoded, err := sdk.DecodeToken(foreign)
	require.NoError(t, err)
	assert.Equal(t, "admin", decoded.Role)
}

// compactToken assembles a credential from raw header and claim maps.
func compactToken(t *testing.T, header, claims map[string]any) string {
	t.Helper()
	segment := func(v map[string]any) string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(data)
	}
	return segment(header) + "." + segment(claims) + ".c2ln"
}

func TestDecodeTokenIgnoresHeaderAlgorithm(t *testing.T) {
	claims := map[string]any{
		"sub":         "1",
		"role":        "admin",
		"permissions": []string{"manage_races"},
		"exp":         4102444800,
	}

	tests := []struct {
		name   string
		header map[string]any
	}{
		{name: "registered alg", header: map[string]any{"alg": "HS256", "typ": "JWT"}},
		{name: "no alg", header: map[string]any{"typ": "JWT"}},
		{name: "unregistered alg", header: map[string]any{"alg": "ES256K", "typ": "JWT"}},
		{name: "non-string alg", header: map[string]any{"alg": 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := sdk.DecodeToken(compactToken(t, tt.header, claims))
			require.NoError(t, err)
			assert.Equal(t, "1", decoded.Subject)
			assert.Equal(t, "admin", decoded.Role)
			assert.Equal(t, []string{"manage_races"}, decoded.Permissions)
			assert.Equal(t, int64(4102444800), decoded.ExpiresAt.Unix())
		})
	}

	// a header that is not JSON is still malformed
	_, err := sdk.DecodeToken("bm90LWpzb24." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"1"}`)) + ".c2ln")
	assert.ErrorIs(t, err, sdk.ErrMalformedCredential)
}

func TestDecodeTokenExpiredStillDecodes(t *testing.T) {
	exp := time.Now().Add(-time.Hour)
	claims, err := sdk.DecodeToken(sdktest.Token(1, "admin", []string{}, exp))
	require.NoError(t, err)
	assert.True(t, claims.Expired(time.Now()))
}

func TestClaimsExpired(t *testing.T) {
	exp := time.Unix(1_700_000_000, 0)
	claims := &sdk.Claims{ExpiresAt: exp}

	assert.False(t, claims.Expired(exp.Add(-time.Second)))
	assert.True(t, claims.Expired(exp))
	assert.True(t, claims.Expired(exp.Add(time.Second)))
}

func TestClaimsIdentity(t *testing.T) {
	numeric := &sdk.Claims{Subject: "42", Role: "admin", Permissions: []string{"a"}}
	id := numeric.Identity()
	assert.Equal(t, 42, id.ID)
	assert.Equal(t, "42", id.Username)
	assert.Equal(t, "admin", id.Role)
	assert.Equal(t, []string{"a"}, id.Permissions)

	// the identity owns its permission slice
	id.Permissions[0] = "mutated"
	assert.Equal(t, "a", numeric.Permissions[0])

	named := &sdk.Claims{Subject: "alice", Role: "viewer"}
	assert.Equal(t, 0, named.Identity().ID)
	assert.Equal(t, "alice", named.Identity().Username)
}
