package reports

import (
	"fmt"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/spf13/cobra"
)

var standingsRank string

var standingsCmd = &cobra.Command{
	Use:   "standings",
	Short: "Show overall or per-rank standings",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		var results []sdk.RacerResult
		if standingsRank != "" {
			results, err = derbyClient.RankStandings(ctx, standingsRank)
		} else {
			results, err = derbyClient.Standings(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to get standings: %w", err)
		}

		printResults(cobraCmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	standingsCmd.Flags().StringVar(&standingsRank, "rank", "", "Limit standings to one rank")
}
