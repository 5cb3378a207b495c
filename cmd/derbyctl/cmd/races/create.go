package races

import (
	"fmt"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var createType string

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a race",
	Args:  cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		race, err := derbyClient.CreateRace(ctx, sdk.RaceInput{Name: args[0], RaceType: sdk.RaceType(createType)})
		if err != nil {
			return fmt.Errorf("failed to create race: %w", err)
		}

		pterm.Success.Printf("Created %s race %q\n", race.RaceType, race.Name)
		fmt.Fprintf(cobraCmd.OutOrStdout(), "%d\n", race.ID)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createType, "type", "", "round_robin, elimination or custom (default round_robin)")
}
