package sdk_test

import (
	"testing"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/stretchr/testify/assert"
)

type staticAuth bool

func (s staticAuth) IsAuthenticated() bool { return bool(s) }

func TestDecide(t *testing.T) {
	const login, home = "/login", "/dashboard"

	tests := []struct {
		name          string
		requiresAuth  bool
		authenticated bool
		path          string
		want          sdk.Decision
	}{
		{
			name:         "protected view while anonymous",
			requiresAuth: true,
			path:         "/racers",
			want:         sdk.Decision{Outcome: sdk.RedirectToLogin, Target: login},
		},
		{
			name:          "protected view while authenticated",
			requiresAuth:  true,
			authenticated: true,
			path:          "/racers",
			want:          sdk.Decision{Outcome: sdk.Allow},
		},
		{
			name:          "login while authenticated",
			authenticated: true,
			path:          login,
			want:          sdk.Decision{Outcome: sdk.RedirectToHome, Target: home},
		},
		{
			name: "login while anonymous",
			path: login,
			want: sdk.Decision{Outcome: sdk.Allow},
		},
		{
			name: "public view while anonymous",
			path: "/about",
			want: sdk.Decision{Outcome: sdk.Allow},
		},
		{
			name:          "public view while authenticated",
			authenticated: true,
			path:          "/about",
			want:          sdk.Decision{Outcome: sdk.Allow},
		},
		{
			name:         "protected login view while anonymous",
			requiresAuth: true,
			path:         login,
			want:         sdk.Decision{Outcome: sdk.RedirectToLogin, Target: login},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sdk.Decide(tt.requiresAuth, tt.authenticated, tt.path, login, home)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuardCheck(t *testing.T) {
	racers := sdk.Route{Name: "Racers", Pattern: "/racers", RequiresAuth: true}
	login := sdk.Route{Name: "Login", Pattern: "/signin"}

	anon := sdk.NewGuard(staticAuth(false), sdk.WithGuardPaths("/signin", "/home"))
	assert.Equal(t, sdk.Decision{Outcome: sdk.RedirectToLogin, Target: "/signin"}, anon.Check(racers, "/racers"))
	assert.Equal(t, sdk.Allow, anon.Check(login, "/signin").Outcome)

	authed := sdk.NewGuard(staticAuth(true), sdk.WithGuardPaths("/signin", "/home"))
	assert.Equal(t, sdk.Allow, authed.Check(racers, "/racers").Outcome)
	assert.Equal(t, sdk.Decision{Outcome: sdk.RedirectToHome, Target: "/home"}, authed.Check(login, "/signin"))

	assert.Equal(t, "/signin", authed.LoginPath())
	assert.Equal(t, "/home", authed.HomePath())
}

func TestGuardDefaults(t *testing.T) {
	g := sdk.NewGuard(staticAuth(false))
	assert.Equal(t, sdk.DefaultLoginPath, g.LoginPath())
	assert.Equal(t, sdk.DefaultHomePath, g.HomePath())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "allow", sdk.Allow.String())
	assert.Equal(t, "redirect-to-login", sdk.RedirectToLogin.String())
	assert.Equal(t, "redirect-to-home", sdk.RedirectToHome.String())
}
