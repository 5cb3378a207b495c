package racers

import (
	"fmt"
	"slices"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var checkinStatus string

var checkinStatuses = []sdk.CheckinStatus{sdk.CheckinRegistered, sdk.CheckinCheckedIn, sdk.CheckinPassedInspection}

var checkinCmd = &cobra.Command{
	Use:   "checkin <id>",
	Short: "Record a racer's check-in status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		status := sdk.CheckinStatus(checkinStatus)
		if !slices.Contains(checkinStatuses, status) {
			return fmt.Errorf("invalid status %q (expected %s, %s or %s)", checkinStatus, checkinStatuses[0], checkinStatuses[1], checkinStatuses[2])
		}

		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		racer, err := derbyClient.CheckinRacer(ctx, id, status)
		if err != nil {
			return fmt.Errorf("failed to check in racer: %w", err)
		}

		pterm.Success.Printf("%s is now %s\n", racer.FullName(), racer.CheckinStatus)
		return nil
	},
}

func init() {
	checkinCmd.Flags().StringVar(&checkinStatus, "status", string(sdk.CheckinCheckedIn), "registered, checked_in or passed_inspection")
}
