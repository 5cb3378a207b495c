package races

import (
	"context"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/dirctx"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RacesCmd is the parent command for race operations
var RacesCmd = &cobra.Command{
	Use:   "races",
	Short: "Manage races and heats",
	Long: `Commands for creating races, generating heats and driving a race from
start to finish. Commands taking an optional race id fall back to the
default race recorded in the directory's .derby file.`,
}

func init() {
	RacesCmd.AddCommand(listCmd)
	RacesCmd.AddCommand(getCmd)
	RacesCmd.AddCommand(createCmd)
	RacesCmd.AddCommand(heatsCmd)
	RacesCmd.AddCommand(generateHeatsCmd)
	RacesCmd.AddCommand(startCmd)
	RacesCmd.AddCommand(completeCmd)
}

func sdkClient(ctx context.Context) (*sdk.Client, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.SDKClient(ctx)
}

// resolveRace picks the race from the optional positional argument or the
// .derby context.
func resolveRace(args []string) (int, error) {
	var explicit dirctx.RaceRef
	if len(args) == 1 {
		ref, err := dirctx.ParseRaceRef(args[0])
		if err != nil {
			return 0, err
		}
		explicit = ref
	}

	derbyCtx, err := dirctx.ReadDerbyContext()
	if err != nil {
		pterm.Warning.Printf("Warning: .derby file corrupted or invalid, ignoring: %v\n", err)
	}

	ref, err := dirctx.ResolveRaceRef(explicit, dirctx.ContextRaceRef(derbyCtx))
	if err != nil {
		return 0, err
	}
	return ref.ID, nil
}
