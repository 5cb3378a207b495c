package races

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var heatsCmd = &cobra.Command{
	Use:   "heats [<race-id>]",
	Short: "Show a race's heats and lane assignments",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		id, err := resolveRace(args)
		if err != nil {
			return err
		}

		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		heats, err := derbyClient.RaceHeats(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list heats: %w", err)
		}
		printHeats(cobraCmd.OutOrStdout(), heats)
		return nil
	},
}

var generateHeatsCmd = &cobra.Command{
	Use:   "generate-heats [<race-id>]",
	Short: "Generate heats for a race",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		id, err := resolveRace(args)
		if err != nil {
			return err
		}

		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		heats, err := derbyClient.GenerateHeats(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to generate heats: %w", err)
		}
		pterm.Success.Printf("Generated %d heats\n", len(heats))
		printHeats(cobraCmd.OutOrStdout(), heats)
		return nil
	},
}

func printHeats(out io.Writer, heats []sdk.Heat) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HEAT\tSTATUS\tLANE\tCAR\tRACER\tPLACE")
	for _, h := range heats {
		for _, l := range h.Lanes {
			place := "-"
			switch {
			case l.DNF:
				place = "DNF"
			case l.FinishPosition != nil:
				place = fmt.Sprint(*l.FinishPosition)
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n", h.HeatNumber, h.Status, l.LaneNumber, l.CarNumber, l.RacerName, place)
		}
	}
	w.Flush()
}
