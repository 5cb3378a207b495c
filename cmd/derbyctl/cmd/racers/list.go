package racers

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	listRank   string
	listStatus string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List racers",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		derbyClient, err := sdkClient(cobraCmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cobraCmd.Context(), 10*time.Second)
		defer cancel()

		racers, err := derbyClient.ListRacers(ctx)
		if err != nil {
			return fmt.Errorf("failed to list racers: %w", err)
		}
		sort.Slice(racers, func(i, j int) bool { return racers[i].CarNumber < racers[j].CarNumber })

		w := tabwriter.NewWriter(cobraCmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCAR\tNAME\tRANK\tDEN\tSTATUS")
		for _, r := range racers {
			if listRank != "" && r.Rank != listRank {
				continue
			}
			if listStatus != "" && string(r.CheckinStatus) != listStatus {
				continue
			}
			den := r.Den
			if den == "" {
				den = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.CarNumber, r.FullName(), r.Rank, den, r.CheckinStatus)
		}
		w.Flush()

		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listRank, "rank", "", "Only racers of this rank")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only racers with this check-in status")
}
