package racers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/spf13/cobra"
)

// RacersCmd is the parent command for racer operations
var RacersCmd = &cobra.Command{
	Use:   "racers",
	Short: "Manage racers",
	Long:  `Commands for registering racers, checking them in and browsing the roster.`,
}

func init() {
	RacersCmd.AddCommand(listCmd)
	RacersCmd.AddCommand(getCmd)
	RacersCmd.AddCommand(createCmd)
	RacersCmd.AddCommand(checkinCmd)
	RacersCmd.AddCommand(deleteCmd)
	RacersCmd.AddCommand(photoCmd)
}

func sdkClient(ctx context.Context) (*sdk.Client, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.SDKClient(ctx)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid racer id %q", arg)
	}
	return id, nil
}
