package auth

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	Long: `Shows the identity decoded from the stored credential. No request is made;
use 'derbyctl auth whoami' to ask the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		s, err := session(cmd.Context())
		if err != nil {
			return err
		}

		claims := s.Claims()
		if claims == nil {
			return errors.New("not logged in; run 'derbyctl auth login'")
		}

		pterm.DefaultSection.Println("Authentication Status")
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "SERVER\t%s\n", cfg.APIURL)
		fmt.Fprintf(w, "STORE\t%s\n", cfg.Settings.Store.Kind)
		fmt.Fprintf(w, "STATE\t%s\n", s.State())
		fmt.Fprintf(w, "USER\t%s\n", claims.Subject)
		fmt.Fprintf(w, "ROLE\t%s\n", claims.Role)
		fmt.Fprintf(w, "PERMISSIONS\t%s\n", strings.Join(claims.Permissions, ", "))
		fmt.Fprintf(w, "EXPIRES\t%s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
		w.Flush()

		if s.Expired() {
			pterm.Warning.Println("The credential has expired; the server will reject it. Run 'derbyctl auth login'.")
		}
		return nil
	},
}
