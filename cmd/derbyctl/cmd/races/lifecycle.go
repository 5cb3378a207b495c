package races

import (
	"context"
	"fmt"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [<race-id>]",
	Short: "Mark a race in progress",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		return transition(cobraCmd, args, "start", (*sdk.Client).StartRace)
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete [<race-id>]",
	Short: "Mark a race completed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		return transition(cobraCmd, args, "complete", (*sdk.Client).CompleteRace)
	},
}

func transition(cobraCmd *cobra.Command, args []string, verb string, fn func(*sdk.Client, context.Context, int) (*sdk.Race, error)) error {
	id, err := resolveRace(args)
	if err != nil {
		return err
	}

	ctx := cobraCmd.Context()
	derbyClient, err := sdkClient(ctx)
	if err != nil {
		return err
	}

	race, err := fn(derbyClient, ctx, id)
	if err != nil {
		return fmt.Errorf("failed to %s race: %w", verb, err)
	}
	pterm.Success.Printf("Race %q is now %s\n", race.Name, race.Status)
	return nil
}
