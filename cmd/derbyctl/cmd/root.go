package cmd

import (
	"fmt"
	"os"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/cmd/auth"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/cmd/racers"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/cmd/races"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/cmd/reports"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/client"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/dirctx"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	serverURL      string
	configPath     string
	logLevel       string
	storeKind      string
	bearerToken    string
	nonInteractive bool
)

var rootCmd = &cobra.Command{
	Use:   "derbyctl",
	Short: "Derby Director CLI - pinewood derby event client",
	Long: `derbyctl is the command-line client for Derby Director. It signs in to the
event API, keeps the session credential in a local store and manages racers,
races and reports on your behalf.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg, ok := config.FromContext(cmd.Context()); ok {
			return cfg.ClientProvider.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Derby API base URL (default from config, .derby or "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.derby/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Credential store: file, keyring, sqlite, redis, memory")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "Use this credential for one invocation instead of the store (also "+config.EnvToken+")")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via DERBY_NON_INTERACTIVE=1)")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(racers.RacersCmd)
	rootCmd.AddCommand(races.RacesCmd)
	rootCmd.AddCommand(reports.ReportsCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(initCmd)
}

// setup loads configuration, builds the logger and client provider, and
// injects them into the command context.
func setup(cmd *cobra.Command, args []string) error {
	if os.Getenv("DERBY_NON_INTERACTIVE") == "1" {
		nonInteractive = true
	}

	path, required := configPath, configPath != ""
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	settings, err := config.Load(path, required)
	if err != nil {
		return err
	}

	// precedence: flag, environment, .derby, config file
	if serverURL != "" {
		settings.APIURL = serverURL
	} else if os.Getenv(config.EnvAPIURL) == "" {
		derbyCtx, err := dirctx.ReadDerbyContext()
		if err != nil {
			pterm.Warning.Printf("Warning: .derby file corrupted or invalid, ignoring: %v\n", err)
		} else if derbyCtx != nil && derbyCtx.ServerURL != "" {
			settings.APIURL = derbyCtx.ServerURL
		}
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if storeKind != "" {
		settings.Store.Kind = storeKind
	}
	if bearerToken != "" {
		settings.Token = bearerToken
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	logger := settings.NewLogger(cmd.ErrOrStderr())
	provider := client.NewProvider(client.Options{
		APIURL:        settings.APIURL,
		Store:         settings.StoreOptions(),
		EnforceExpiry: settings.Session.EnforceExpiry,
		LoginView:     settings.Session.LoginView,
		HomeView:      settings.Session.HomeView,
		Logger:        logger,
	})
	if settings.Token != "" {
		provider.SetBearerToken(settings.Token)
	}

	logger.Debug("configured", "api_url", settings.APIURL, "store", settings.Store.Kind, "config", path)

	cmd.SetContext(config.InjectConfig(cmd.Context(), &config.GlobalConfig{
		APIURL:         settings.APIURL,
		NonInteractive: nonInteractive,
		Settings:       settings,
		Logger:         logger,
		ClientProvider: provider,
	}))
	return nil
}
