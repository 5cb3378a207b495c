package sdk

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

// Claims is the structured content of a decoded credential.
// Claims are only ever produced by DecodeToken.
type Claims struct {
	Subject     string
	Role        string
	Permissions []string
	ExpiresAt   time.Time
}

// Expired reports whether the credential's exp claim is at or before now.
func (c *Claims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// HasPermission reports whether p is in the permission set.
func (c *Claims) HasPermission(p string) bool {
	return slices.Contains(c.Permissions, p)
}

// Identity derives the session identity from the claims.
// The numeric ID is zero when the subject is not an integer.
func (c *Claims) Identity() *Identity {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		id = 0
	}
	return &Identity{
		ID:          id,
		Username:    c.Subject,
		Role:        c.Role,
		Permissions: slices.Clone(c.Permissions),
	}
}

// payloadClaims mirrors the application-specific part of the token payload.
type payloadClaims struct {
	Role        string   `mapstructure:"role"`
	Permissions []string `mapstructure:"permissions"`
}

var tokenParser = jwt.NewParser()

// DecodeToken decodes a compact three-part credential into Claims.
// Decoding is structural only: the signature is not verified and an expired
// credential still decodes. Every failure wraps ErrMalformedCredential.
func DecodeToken(credential string) (*Claims, error) {
	mapClaims := jwt.MapClaims{}
	// The header's alg is irrelevant here. ParseUnverified has already decoded
	// the claims when it reports an unknown or missing signing method.
	if _, _, err := tokenParser.ParseUnverified(credential, mapClaims); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	sub, err := subjectClaim(mapClaims)
	if err != nil {
		return nil, err
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrMalformedCredential, err)
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformedCredential)
	}

	for _, required := range []string{"role", "permissions"} {
		if v, ok := mapClaims[required]; !ok || v == nil {
			return nil, fmt.Errorf("%w: missing %s claim", ErrMalformedCredential, required)
		}
	}

	var payload payloadClaims
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &payload,
	})
	if err != nil {
		return nil, fmt.Errorf("build claims decoder: %w", err)
	}
	if err := decoder.Decode(map[string]interface{}(mapClaims)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	return &Claims{
		Subject:     sub,
		Role:        payload.Role,
		Permissions: payload.Permissions,
		ExpiresAt:   exp.Time,
	}, nil
}

// subjectClaim accepts string subjects and integral numeric subjects.
func subjectClaim(claims jwt.MapClaims) (string, error) {
	switch v := claims["sub"].(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("%w: empty sub claim", ErrMalformedCredential)
		}
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return "", fmt.Errorf("%w: non-integral numeric sub claim", ErrMalformedCredential)
		}
		return strconv.FormatInt(int64(v), 10), nil
	case nil:
		return "", fmt.Errorf("%w: missing sub claim", ErrMalformedCredential)
	default:
		return "", fmt.Errorf("%w: sub claim has type %T", ErrMalformedCredential, v)
	}
}
