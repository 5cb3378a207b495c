package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	username      string
	passwordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Derby API",
	Long: `Signs in with a username and password and stores the returned credential.

The username comes from --username or DERBY_USERNAME. The password is read
from stdin with --password-stdin, from DERBY_PASSWORD, or prompted for.
A failed login leaves any existing session untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.MustFromContext(ctx)

		user, password, err := loginCredentials(cmd.InOrStdin(), cfg.NonInteractive)
		if err != nil {
			return err
		}

		s, err := session(ctx)
		if err != nil {
			return err
		}
		if err := s.Login(ctx, user, password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		identity := s.Identity()
		pterm.Success.Printf("Logged in as %s (%s)\n", identity.Username, identity.Role)

		router, err := cfg.ClientProvider.Router(ctx)
		if err != nil {
			return err
		}
		nav, err := router.Navigate(cfg.Settings.Session.LoginView)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Landing view: %s\n", nav.Path)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Account username (or DERBY_USERNAME)")
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
}

func loginCredentials(stdin io.Reader, nonInteractive bool) (string, string, error) {
	user := username
	if user == "" {
		user = os.Getenv("DERBY_USERNAME")
	}

	var password string
	switch {
	case passwordStdin:
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	default:
		password = os.Getenv("DERBY_PASSWORD")
	}

	if user == "" || password == "" {
		if nonInteractive {
			return "", "", errors.New("username and password are required in non-interactive mode")
		}
		var err error
		if user == "" {
			if user, err = pterm.DefaultInteractiveTextInput.Show("Username"); err != nil {
				return "", "", err
			}
		}
		if password == "" {
			if password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password"); err != nil {
				return "", "", err
			}
		}
	}

	return strings.TrimSpace(user), password, nil
}
