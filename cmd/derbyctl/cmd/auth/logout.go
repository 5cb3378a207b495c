package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out from the Derby API",
	Long:  `Clears the session and removes the stored credential. Logging out twice is harmless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session(cmd.Context())
		if err != nil {
			return err
		}

		s.Logout(cmd.Context())
		pterm.Success.Println("Logged out successfully")
		return nil
	},
}
