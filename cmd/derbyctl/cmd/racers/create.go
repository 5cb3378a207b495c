package racers

import (
	"fmt"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	createInput  sdk.RacerInput
	createWeight float64
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a racer",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		input := createInput
		if cobraCmd.Flags().Changed("weight") {
			w := createWeight
			input.Weight = &w
		}

		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		racer, err := derbyClient.CreateRacer(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to create racer: %w", err)
		}

		pterm.Success.Printf("Registered %s with car %s\n", racer.FullName(), racer.CarNumber)
		fmt.Fprintf(cobraCmd.OutOrStdout(), "%d\n", racer.ID)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createInput.FirstName, "first", "", "First name (required)")
	createCmd.Flags().StringVar(&createInput.LastName, "last", "", "Last name (required)")
	createCmd.Flags().StringVar(&createInput.CarNumber, "car", "", "Car number (required)")
	createCmd.Flags().StringVar(&createInput.Rank, "rank", "", "Scout rank")
	createCmd.Flags().StringVar(&createInput.Den, "den", "", "Den")
	createCmd.Flags().Float64Var(&createWeight, "weight", 0, "Car weight in ounces")
}
