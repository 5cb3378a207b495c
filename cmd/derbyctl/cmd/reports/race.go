package reports

import (
	"fmt"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/dirctx"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var raceCmd = &cobra.Command{
	Use:   "race [<race-id>]",
	Short: "Show the results of one race",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		var explicit dirctx.RaceRef
		if len(args) == 1 {
			ref, err := dirctx.ParseRaceRef(args[0])
			if err != nil {
				return err
			}
			explicit = ref
		}
		derbyCtx, err := dirctx.ReadDerbyContext()
		if err != nil {
			pterm.Warning.Printf("Warning: .derby file corrupted or invalid, ignoring: %v\n", err)
		}
		ref, err := dirctx.ResolveRaceRef(explicit, dirctx.ContextRaceRef(derbyCtx))
		if err != nil {
			return err
		}

		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		report, err := derbyClient.RaceReport(ctx, ref.ID)
		if err != nil {
			return fmt.Errorf("failed to get race report: %w", err)
		}

		fmt.Fprintf(cobraCmd.OutOrStdout(), "%s (%s, %s)\n\n", report.Name, report.RaceType, report.Status)
		printResults(cobraCmd.OutOrStdout(), report.Results)
		return nil
	},
}
