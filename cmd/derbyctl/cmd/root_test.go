package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/dirctx"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/jeremysavoy/derby-director/pkg/sdk/sdktest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cli runs derbyctl against a fake API with a file store in a temp dir.
type cli struct {
	server     *sdktest.Server
	configPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	server := sdktest.NewServer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("api_url: %s\nstore:\n  kind: file\n  dir: %s\n", server.APIURL(), filepath.Join(dir, "creds"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	t.Setenv("DERBY_API_URL", "")
	t.Setenv("DERBY_TOKEN", "")
	t.Setenv("DERBY_STORE", "")
	return &cli{server: server, configPath: path}
}

func (c *cli) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", c.configPath, "--non-interactive"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) login(t *testing.T) string {
	t.Helper()
	out, err := c.run(t, "secret\n", "auth", "login", "-u", "alice", "--password-stdin")
	require.NoError(t, err)
	return out
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestLoginStatusLogout(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "auth", "status")
	assert.ErrorContains(t, err, "not logged in")

	out := c.login(t)
	assert.Contains(t, out, "Landing view: /dashboard")

	out, err = c.run(t, "", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "authenticated")
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "manage_races")

	out, err = c.run(t, "", "auth", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")

	_, err = c.run(t, "", "auth", "logout")
	require.NoError(t, err)
	_, err = c.run(t, "", "auth", "logout")
	require.NoError(t, err, "logout is idempotent")

	_, err = c.run(t, "", "auth", "status")
	assert.ErrorContains(t, err, "not logged in")
}

func TestLoginFailure(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "wrong\n", "auth", "login", "-u", "alice", "--password-stdin")
	require.ErrorIs(t, err, sdk.ErrAuthentication)
	assert.ErrorContains(t, err, "Invalid username or password")

	_, err = c.run(t, "", "auth", "login", "-u", "alice")
	assert.ErrorContains(t, err, "non-interactive")
}

func TestOpenRunsGuard(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "open", "/racers/12")
	require.NoError(t, err)
	assert.Contains(t, out, "REQUESTED  /racers/12")
	assert.Contains(t, out, "PATH       /login")

	c.login(t)

	out, err = c.run(t, "", "open", "/racers/12")
	require.NoError(t, err)
	assert.Contains(t, out, "RacerDetail")
	assert.Contains(t, out, "id=12")

	out, err = c.run(t, "", "open", "/login")
	require.NoError(t, err)
	assert.Contains(t, out, "PATH       /dashboard")
	assert.Contains(t, out, "REDIRECTS  /dashboard")
}

func TestRaceDayCommands(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	for i, name := range []string{"Ada", "Grace", "Katherine", "Dorothy", "Mary"} {
		_, err := c.run(t, "", "racers", "create", "--first", name, "--last", "Racer", "--car", fmt.Sprint(100+i), "--rank", "Wolf")
		require.NoError(t, err)
	}

	out, err := c.run(t, "", "racers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Katherine Racer")
	assert.Contains(t, out, "registered")

	_, err = c.run(t, "", "racers", "checkin", "1", "--status", "passed_inspection")
	require.NoError(t, err)
	out, err = c.run(t, "", "racers", "list", "--status", "passed_inspection")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Racer")
	assert.NotContains(t, out, "Grace Racer")

	_, err = c.run(t, "", "racers", "checkin", "1", "--status", "lost")
	assert.ErrorContains(t, err, "invalid status")

	out, err = c.run(t, "", "races", "create", "Final")
	require.NoError(t, err)
	raceID := strings.TrimSpace(out)

	out, err = c.run(t, "", "races", "generate-heats", raceID)
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Racer")

	_, err = c.run(t, "", "races", "start", raceID)
	require.NoError(t, err)
	out, err = c.run(t, "", "races", "get", raceID)
	require.NoError(t, err)
	assert.Contains(t, out, "in_progress")

	out, err = c.run(t, "", "reports", "standings", "--rank", "Wolf")
	require.NoError(t, err)
	assert.Contains(t, out, "Dorothy Racer")

	_, err = c.run(t, "", "racers", "delete", "5")
	assert.ErrorContains(t, err, "--yes")
	_, err = c.run(t, "", "racers", "delete", "5", "--yes")
	require.NoError(t, err)

	pdf := filepath.Join(t.TempDir(), "cert.pdf")
	_, err = c.run(t, "", "reports", "certificate", "--racer", "1", "--award", "winner", "--out", pdf)
	require.NoError(t, err)
	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRacerPhotoUpload(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	_, err := c.run(t, "", "racers", "create", "--first", "Ada", "--last", "Racer", "--car", "100")
	require.NoError(t, err)

	photo := filepath.Join(t.TempDir(), "car.png")
	require.NoError(t, os.WriteFile(photo, []byte("png-bytes"), 0600))

	out, err := c.run(t, "", "racers", "photo", "1", photo)
	require.NoError(t, err)
	assert.Contains(t, out, "/uploads/racers/1/car.png")

	stored, ok := c.server.Photo(1)
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(stored))

	_, err = c.run(t, "", "racers", "photo", "1", filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "failed to open photo")
}

func TestUnauthorizedResponseSignsOut(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	c.server.Fail("/racers", http.StatusUnauthorized, "Token expired")
	_, err := c.run(t, "", "racers", "list")
	require.ErrorIs(t, err, sdk.ErrUnauthorized)

	// the stored credential went with the session
	_, err = c.run(t, "", "auth", "status")
	assert.ErrorContains(t, err, "not logged in")
}

func TestForbiddenResponseKeepsSession(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	c.server.Fail("/races", http.StatusForbidden, "Not enough permissions")
	_, err := c.run(t, "", "races", "list")
	require.ErrorIs(t, err, sdk.ErrForbidden)

	_, err = c.run(t, "", "auth", "status")
	assert.NoError(t, err)
}

func TestTokenFlagBypassesStore(t *testing.T) {
	c := newCLI(t)
	token := sdktest.Token(1, "admin", []string{"manage_races"}, time.Now().Add(time.Hour))

	out, err := c.run(t, "", "--token", token, "auth", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")

	_, err = c.run(t, "", "auth", "status")
	assert.ErrorContains(t, err, "not logged in")
}

func TestAuthExport(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "auth", "export")
	assert.ErrorContains(t, err, "not logged in")

	c.login(t)
	out, err := c.run(t, "", "auth", "export", "--shell", "fish")
	require.NoError(t, err)
	assert.Contains(t, out, "set -x DERBY_TOKEN \"")
	assert.Contains(t, out, "set -x DERBY_API_URL \""+c.server.APIURL()+"\"")

	_, err = c.run(t, "", "auth", "export", "--shell", "tcsh")
	assert.ErrorContains(t, err, "unsupported shell format")
}

func TestInitBindsDirectory(t *testing.T) {
	c := newCLI(t)
	t.Chdir(t.TempDir())
	c.login(t)
	c.server.SeedRaces(sdk.Race{ID: 3, Name: "Tiger Sprint", RaceType: sdk.RaceTypeRoundRobin, Status: sdk.RaceStatusPending})

	_, err := c.run(t, "", "races", "get")
	assert.ErrorContains(t, err, "race identifier required")

	_, err = c.run(t, "", "init", "Spring Derby", "--race", "3")
	require.NoError(t, err)

	derbyCtx, err := dirctx.ReadDerbyContext()
	require.NoError(t, err)
	require.NotNil(t, derbyCtx)
	assert.Equal(t, "Spring Derby", derbyCtx.EventName)
	assert.Equal(t, 3, derbyCtx.DefaultRaceID)
	assert.Equal(t, c.server.APIURL(), derbyCtx.ServerURL)

	out, err := c.run(t, "", "races", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "Tiger Sprint")

	_, err = c.run(t, "", "init", "Fall Derby")
	assert.ErrorContains(t, err, "--force")

	_, err = c.run(t, "", "init", "Spring Derby")
	require.NoError(t, err)
	again, err := dirctx.ReadDerbyContext()
	require.NoError(t, err)
	assert.Equal(t, derbyCtx.EventGUID, again.EventGUID)
	assert.Equal(t, 3, again.DefaultRaceID)
}

func TestInvalidConfiguration(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "", "--store", "floppy", "auth", "status")
	assert.ErrorContains(t, err, "store.kind")

	_, err = c.run(t, "", "--server", "not a url", "open", "/")
	assert.ErrorContains(t, err, "api_url")
}
