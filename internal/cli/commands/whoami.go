package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runWhoami(cmd *cobra.Command, serverAlias string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	api, store := newSession(server)
	defer store.Close()
	api.Transport().AtLogin = func() bool { return true }

	// Revalidates the persisted session against the server; a stale or
	// invalid token silently settles into "not logged in".
	store.CheckAuth(cmd.Context())

	state := store.State()
	if !state.IsAuthenticated {
		fmt.Println("Not logged in. Run 'tickd login' to sign in.")
		return nil
	}

	fmt.Printf("%s <%s> (role: %s) on %s\n", state.User.Name, state.User.Email, state.User.Role, server.Alias)
	return nil
}
