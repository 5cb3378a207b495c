package racers

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var photoCmd = &cobra.Command{
	Use:   "photo <id> <file>",
	Short: "Upload a racer's car photo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open photo: %w", err)
		}
		defer f.Close()

		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		racer, err := derbyClient.UploadRacerPhoto(ctx, id, f.Name(), f)
		if err != nil {
			return fmt.Errorf("failed to upload photo: %w", err)
		}

		pterm.Success.Printf("Photo uploaded for %s\n", racer.FullName())
		fmt.Fprintln(cobraCmd.OutOrStdout(), racer.PhotoURL)
		return nil
	},
}
