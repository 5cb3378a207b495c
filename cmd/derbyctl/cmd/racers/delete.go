package racers

import (
	"fmt"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a racer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx := cobraCmd.Context()
		if !deleteYes {
			if config.MustFromContext(ctx).NonInteractive {
				return fmt.Errorf("refusing to delete racer %d without --yes in non-interactive mode", id)
			}
			ok, err := pterm.DefaultInteractiveConfirm.Show(fmt.Sprintf("Delete racer %d?", id))
			if err != nil {
				return err
			}
			if !ok {
				pterm.Info.Println("Aborted.")
				return nil
			}
		}

		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}
		if err := derbyClient.DeleteRacer(ctx, id); err != nil {
			return fmt.Errorf("failed to delete racer: %w", err)
		}

		pterm.Success.Printf("Deleted racer %d\n", id)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}
