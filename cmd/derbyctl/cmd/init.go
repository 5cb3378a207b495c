package cmd

import (
	"fmt"
	"time"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/dirctx"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	initRace  int
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init <event-name>",
	Short: "Bind this directory to a derby event",
	Long: `Writes a .derby context file recording the event, the API server and an
optional default race. Commands run in this directory use that server and
race unless told otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		existing, err := dirctx.ReadDerbyContext()
		if err != nil {
			pterm.Warning.Printf("Warning: .derby file corrupted or invalid, ignoring: %v\n", err)
		}
		if existing != nil && existing.EventName != args[0] && !initForce {
			return fmt.Errorf(".derby exists for event %s (GUID: %s); use --force to overwrite with %s",
				existing.EventName, existing.EventGUID, args[0])
		}

		derbyCtx := dirctx.NewDirectoryContext(args[0], cfg.APIURL)
		if existing != nil && existing.EventName == args[0] {
			// re-init keeps the event identity
			derbyCtx.EventGUID = existing.EventGUID
			derbyCtx.CreatedAt = existing.CreatedAt
			derbyCtx.DefaultRaceID = existing.DefaultRaceID
			derbyCtx.UpdatedAt = time.Now().UTC()
		}
		if cmd.Flags().Changed("race") {
			derbyCtx.DefaultRaceID = initRace
		}

		if err := dirctx.WriteDerbyContext(derbyCtx); err != nil {
			return err
		}

		path, _ := dirctx.GetDerbyFilePath()
		pterm.Success.Printf("Saved event context to %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), derbyCtx.EventGUID)
		return nil
	},
}

func init() {
	initCmd.Flags().IntVar(&initRace, "race", 0, "Default race ID for race and report commands")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite a .derby file for a different event")
}
