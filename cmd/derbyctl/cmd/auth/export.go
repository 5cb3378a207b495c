package auth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeremysavoy/derby-director/cmd/derbyctl/internal/config"
	"github.com/spf13/cobra"
)

var (
	shellFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session credential as environment variables",
	Long: `Prints shell commands that set DERBY_TOKEN and DERBY_API_URL so scripts
and other tools can reuse the current session without touching the store.

Supported shells:
  - posix (bash, zsh, sh) - default
  - fish
  - powershell

Usage:
  eval $(derbyctl auth export)
  eval (derbyctl auth export --shell fish)
  derbyctl auth export --shell powershell | Invoke-Expression`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (auto-detected if not specified)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.MustFromContext(cmd.Context())
	s, err := session(cmd.Context())
	if err != nil {
		return err
	}

	token, err := s.Token()
	if err != nil {
		return errors.New("not logged in\n\nPlease run 'derbyctl auth login' first")
	}
	if s.Expired() {
		return errors.New("credential has expired\n\nPlease run 'derbyctl auth login' to sign in again")
	}

	shell := shellFormat
	if shell == "" {
		shell = detectShell()
	}

	out := cmd.OutOrStdout()
	interactive := isTerminal(os.Stdout)
	switch strings.ToLower(shell) {
	case "posix", "bash", "zsh", "sh":
		printExport(out, interactive, "eval $(derbyctl auth export)", "export %s=\"%s\"\n", token.AccessToken, cfg.APIURL)
	case "fish":
		printExport(out, interactive, "eval (derbyctl auth export --shell fish)", "set -x %s \"%s\"\n", token.AccessToken, cfg.APIURL)
	case "powershell", "pwsh", "ps1":
		printExport(out, interactive, "derbyctl auth export --shell powershell | Invoke-Expression", "$env:%s=\"%s\"\n", token.AccessToken, cfg.APIURL)
	default:
		return fmt.Errorf("unsupported shell format: %s\n\nSupported formats: posix, fish, powershell", shell)
	}

	return nil
}

// detectShell attempts to detect the current shell from the SHELL environment variable
func detectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "posix"
	}

	switch filepath.Base(shell) {
	case "fish":
		return "fish"
	case "pwsh", "powershell":
		return "powershell"
	default:
		return "posix"
	}
}

// printExport writes one assignment per variable in the shell's syntax. Usage
// hints go to stderr, and only when a human is watching.
func printExport(out io.Writer, interactive bool, hint, format, token, apiURL string) {
	if interactive {
		fmt.Fprintln(os.Stderr, "# Run this command to configure your environment:")
		fmt.Fprintln(os.Stderr, "#   "+hint)
		fmt.Fprintln(os.Stderr, "")
	}
	fmt.Fprintf(out, format, config.EnvToken, token)
	fmt.Fprintf(out, format, config.EnvAPIURL, apiURL)
}

// isTerminal checks if the given file is a terminal (TTY)
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
