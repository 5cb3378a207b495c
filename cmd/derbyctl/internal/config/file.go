package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/auth"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvAPIURL   = "DERBY_API_URL"
	EnvToken    = "DERBY_TOKEN"
	EnvStore    = "DERBY_STORE"
	EnvRedisURL = "DERBY_REDIS_URL"
	EnvLogLevel = "DERBY_LOG_LEVEL"
)

// FileName is the config file name under the derby directory.
const FileName = "config.yaml"

// File is the derbyctl configuration file.
type File struct {
	APIURL   string        `yaml:"api_url"`
	LogLevel string        `yaml:"log_level"`
	Store    StoreConfig   `yaml:"store"`
	Session  SessionConfig `yaml:"session"`

	// Token comes from DERBY_TOKEN only and is never read from disk.
	Token string `yaml:"-"`
}

// StoreConfig selects the credential store
type StoreConfig struct {
	Kind     string `yaml:"kind"`
	Dir      string `yaml:"dir"`
	Profile  string `yaml:"profile"`
	RedisURL string `yaml:"redis_url"`
}

// SessionConfig tunes the auth session and navigation guard
type SessionConfig struct {
	EnforceExpiry bool   `yaml:"enforce_expiry"`
	LoginView     string `yaml:"login_view"`
	HomeView      string `yaml:"home_view"`
}

// Default returns the configuration used when no file exists.
func Default() *File {
	return &File{
		APIURL:   sdk.DefaultAPIURL,
		LogLevel: "warn",
		Store:    StoreConfig{Kind: auth.StoreFile, Profile: "default"},
		Session: SessionConfig{
			LoginView: sdk.DefaultLoginPath,
			HomeView:  sdk.DefaultHomePath,
		},
	}
}

// DefaultPath returns ~/.derby/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".derby", FileName), nil
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. ${VAR} references in the file are
// expanded. A missing file is only an error when required is set.
func Load(path string, required bool) (*File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or with
// an empty string when unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *File) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Kind = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Store.RedisURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
}

// Validate reports every problem in the configuration at once.
func (c *File) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("api_url must be an absolute http(s) URL, got %q", c.APIURL))
	}

	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("log_level %q is not a valid level", c.LogLevel))
	}

	kind := strings.ToLower(c.Store.Kind)
	if kind != "" && !slices.Contains(auth.StoreKinds, kind) {
		result = multierror.Append(result, fmt.Errorf("store.kind %q must be one of %s", c.Store.Kind, strings.Join(auth.StoreKinds, ", ")))
	}
	if kind == auth.StoreRedis && c.Store.RedisURL == "" {
		result = multierror.Append(result, errors.New("store.redis_url is required for the redis store"))
	}

	views := []struct{ name, value string }{
		{"session.login_view", c.Session.LoginView},
		{"session.home_view", c.Session.HomeView},
	}
	for _, view := range views {
		if !strings.HasPrefix(view.value, "/") {
			result = multierror.Append(result, fmt.Errorf("%s must start with '/', got %q", view.name, view.value))
		}
	}

	return result.ErrorOrNil()
}

// StoreOptions converts the store section for auth.OpenStore.
func (c *File) StoreOptions() auth.StoreOptions {
	return auth.StoreOptions{
		Kind:     c.Store.Kind,
		Dir:      c.Store.Dir,
		Profile:  c.Store.Profile,
		RedisURL: c.Store.RedisURL,
	}
}

// NewLogger builds the CLI's stderr logger at the configured level.
func (c *File) NewLogger(w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "derbyctl",
		Level:  hclog.LevelFromString(c.LogLevel),
		Output: w,
	})
}
