package reports

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	certRacer int
	certRace  int
	certAward string
	certTitle string
	certOut   string
)

var certificateCmd = &cobra.Command{
	Use:   "certificate",
	Short: "Render an award certificate to a PDF file",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		if certOut == "" {
			return errors.New("--out is required")
		}

		req := sdk.CertificateRequest{AwardType: sdk.AwardType(certAward), Title: certTitle}
		if certRacer > 0 {
			req.RacerID = &certRacer
		}
		if certRace > 0 {
			req.RaceID = &certRace
		}

		ctx := cobraCmd.Context()
		derbyClient, err := sdkClient(ctx)
		if err != nil {
			return err
		}

		pdf, err := derbyClient.Certificate(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to render certificate: %w", err)
		}
		if err := os.WriteFile(certOut, pdf, 0644); err != nil {
			return fmt.Errorf("failed to write certificate: %w", err)
		}

		pterm.Success.Printf("Wrote %s (%d bytes)\n", certOut, len(pdf))
		return nil
	},
}

func init() {
	certificateCmd.Flags().IntVar(&certRacer, "racer", 0, "Racer ID")
	certificateCmd.Flags().IntVar(&certRace, "race", 0, "Race ID")
	certificateCmd.Flags().StringVar(&certAward, "award", string(sdk.AwardParticipant), "winner, participant, speed, design or custom")
	certificateCmd.Flags().StringVar(&certTitle, "title", "", "Custom title")
	certificateCmd.Flags().StringVarP(&certOut, "out", "o", "", "Output file (required)")
}
