package races

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [<id>]",
	Short: "Show a race",
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

		race, err := derbyClient.GetRace(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get race: %w", err)
		}

		w := tabwriter.NewWriter(cobraCmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "ID\t%d\n", race.ID)
		fmt.Fprintf(w, "NAME\t%s\n", race.Name)
		fmt.Fprintf(w, "TYPE\t%s\n", race.RaceType)
		fmt.Fprintf(w, "STATUS\t%s\n", race.Status)
		fmt.Fprintf(w, "HEATS\t%d/%d\n", race.CompletedHeats, race.TotalHeats)
		if race.CompletedAt != nil {
			fmt.Fprintf(w, "COMPLETED\t%s\n", race.CompletedAt.Local().Format(time.RFC1123))
		}
		w.Flush()
		return nil
	},
}
