package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a tickd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password, serverAlias)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set TICKD_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TICKD_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password, serverAlias string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("TICKD_EMAIL")
	}
	if password == "" {
		password = os.Getenv("TICKD_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or TICKD_EMAIL env var)")
	}

	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		// Check if stdin is a terminal (not piped)
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or TICKD_PASSWORD env var)")
		}
	}

	api, store := newSession(server)
	defer store.Close()

	// This command is the login entry point: an expired-session response
	// here must not trigger the re-login hint again.
	api.Transport().AtLogin = func() bool { return true }

	fmt.Printf("Logging in to %s (%s)...\n", server.Alias, server.URL)

	if err := store.Login(cmd.Context(), email, password); err != nil {
		state := store.State()
		if state.Error != "" {
			return fmt.Errorf("login failed: %s", state.Error)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	state := store.State()
	fmt.Println("✓ Login successful!")
	if state.User != nil {
		fmt.Printf("  User: %s (%s)\n", state.User.Name, state.User.Email)
		if state.User.Role != "user" {
			fmt.Printf("  Role: %s\n", state.User.Role)
		}
	}

	return nil
}
