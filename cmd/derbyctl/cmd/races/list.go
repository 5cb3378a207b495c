package races

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List races",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		derbyClient, err := sdkClient(cobraCmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 10*time.Second)
		defer cancel()

		races, err := derbyClient.ListRaces(ctx)
		if err != nil {
			return fmt.Errorf("failed to list races: %w", err)
		}

		w := tabwriter.NewWriter(cobraCmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tHEATS")
		for _, r := range races {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\n", r.ID, r.Name, r.RaceType, r.Status, r.CompletedHeats, r.TotalHeats)
		}
		w.Flush()
		return nil
	},
}
