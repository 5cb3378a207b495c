package auth

import (
	"context"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/spf13/cobra"
)

// AuthCmd is the parent command for auth operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Commands for signing in and out of the Derby API and inspecting the current session.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(whoamiCmd)
	AuthCmd.AddCommand(exportCmd)
}

func session(ctx context.Context) (*sdk.Session, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.Session(ctx)
}
