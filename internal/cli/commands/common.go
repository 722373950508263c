package commands

import (
	"fmt"
	"os"

	"github.com/tickd-dev/tickd/internal/cli/auth"
	"github.com/tickd-dev/tickd/internal/cli/client"
	"github.com/tickd-dev/tickd/internal/cli/config"
	"github.com/tickd-dev/tickd/internal/cli/serverselect"
	"github.com/tickd-dev/tickd/internal/logger"
	"github.com/tickd-dev/tickd/internal/session"
)

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'tickd init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	if err := server.Validate(); err != nil {
		return nil, err
	}

	return server, nil
}

// newSession wires durable storage, the API client and the session store for
// a server. The expired-session hint is printed once no matter how many
// requests observe the expiry.
func newSession(server *config.Server) (*client.Client, *session.Store) {
	storage := auth.NewStorage(server.Alias)
	api := client.New(server.URL, storage)
	api.OnAuthChange(func(ev session.Event) {
		if ev.Kind == session.EventSignedOut {
			fmt.Fprintln(os.Stderr, "Session expired. Run 'tickd login' to sign in again.")
		}
	})
	store := session.New(api, storage, logger.GetLogger())
	return api, store
}
