package reports

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/spf13/cobra"
)

// ReportsCmd is the parent command for reporting
var ReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Standings, race reports and certificates",
}

func init() {
	ReportsCmd.AddCommand(standingsCmd)
	ReportsCmd.AddCommand(raceCmd)
	ReportsCmd.AddCommand(certificateCmd)
}

func sdkClient(ctx context.Context) (*sdk.Client, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.SDKClient(ctx)
}

func printResults(out io.Writer, results []sdk.RacerResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tCAR\tNAME\tRANK\tPOINTS\tBEST")
	for _, r := range results {
		best := "-"
		if r.FastestTime != nil {
			best = fmt.Sprintf("%.3fs", *r.FastestTime)
		}
		fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\t%.1f\t%s\n", r.Position, r.CarNumber, r.FirstName, r.LastName, r.Rank, r.TotalPoints, best)
	}
	w.Flush()
}
