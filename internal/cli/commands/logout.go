package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runLogout(cmd *cobra.Command, serverAlias string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	api, store := newSession(server)
	defer store.Close()

	// Logging out twice is fine; the hint would only be noise here.
	api.Transport().AtLogin = func() bool { return true }

	// Logout never fails: the server call is best-effort, the local
	// session is always cleared.
	store.Logout(cmd.Context())

	fmt.Println("✓ Logged out.")
	return nil
}
