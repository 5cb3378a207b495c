package racers

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one racer and their results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		racer, err := derbyClient.GetRacer(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get racer: %w", err)
		}

		w := tabwriter.NewWriter(cobraCmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "NAME\t%s\n", racer.FullName())
		fmt.Fprintf(w, "CAR\t%s\n", racer.CarNumber)
		fmt.Fprintf(w, "RANK\t%s\n", racer.Rank)
		if racer.Den != "" {
			fmt.Fprintf(w, "DEN\t%s\n", racer.Den)
		}
		if racer.Weight != nil {
			fmt.Fprintf(w, "WEIGHT\t%.2f oz\n", *racer.Weight)
		}
		fmt.Fprintf(w, "STATUS\t%s\n", racer.CheckinStatus)
		w.Flush()

		history, err := derbyClient.RacerHistory(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get racer history: %w", err)
		}
		if len(history) > 0 {
			fmt.Fprintln(cobraCmd.OutOrStdout())
			w = tabwriter.NewWriter(cobraCmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POSITION\tPOINTS\tRACES")
			for _, h := range history {
				fmt.Fprintf(w, "%d\t%.1f\t%d\n", h.Position, h.TotalPoints, h.RacesCompleted)
			}
			w.Flush()
		}
		return nil
	},
}
