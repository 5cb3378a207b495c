package auth

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account the server sees",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := config.MustFromContext(ctx).ClientProvider.SDKClient(ctx)
		if err != nil {
			return err
		}

		profile, err := c.Me(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tADMIN\tPERMISSIONS")
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", profile.ID, profile.Username, profile.Role, profile.IsAdmin, strings.Join(profile.Permissions, ", "))
		w.Flush()
		return nil
	},
}
