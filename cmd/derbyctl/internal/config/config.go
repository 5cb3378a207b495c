package config

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/client"
)

type contextKey string

const configKey contextKey = "derbyctl-config"

// GlobalConfig holds shared configuration for all derbyctl commands.
// This is injected into the cobra command context by the root command's
// PersistentPreRunE hook and consumed by all subcommands.
type GlobalConfig struct {
	APIURL         string
	NonInteractive bool
	Settings       *File
	Logger         hclog.Logger
	ClientProvider *client.Provider
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// Only for RunE functions, where the root command has injected it.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("derbyctl: config not found in context - this is a bug in derbyctl")
	}
	return cfg
}
