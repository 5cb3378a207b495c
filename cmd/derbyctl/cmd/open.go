package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <view-path>",
	Short: "Resolve a view path through the navigation guard",
	Long: `Runs the same navigation guard the web client uses and prints where the
current session would land. Protected views redirect to the login view while
signed out; the login view redirects home while signed in.

Example:
  derbyctl open /racers/12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		router, err := config.MustFromContext(ctx).ClientProvider.Router(ctx)
		if err != nil {
			return err
		}

		nav, err := router.Navigate(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "REQUESTED\t%s\n", nav.Requested)
		fmt.Fprintf(w, "VIEW\t%s\n", nav.Route.Name)
		fmt.Fprintf(w, "PATH\t%s\n", nav.Path)
		if len(nav.Params) > 0 {
			keys := make([]string, 0, len(nav.Params))
			for k := range nav.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, k+"="+nav.Params[k])
			}
			fmt.Fprintf(w, "PARAMS\t%s\n", strings.Join(pairs, ", "))
		}
		if len(nav.Redirects) > 0 {
			fmt.Fprintf(w, "REDIRECTS\t%s\n", strings.Join(nav.Redirects, " -> "))
		}
		w.Flush()
		return nil
	},
}
