// Package serverselect decides which configured ticket server a command
// talks to.
package serverselect

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/tickd-dev/tickd/internal/cli/config"
	"github.com/tickd-dev/tickd/internal/cli/userconfig"
)

// ResolveServer picks a server from the project config. Resolution order:
// an explicit --server alias, then the user's remembered selection, then
// the only configured server, and finally an interactive prompt. Whatever
// the prompt or single-server fallback picks is remembered for next time.
func ResolveServer(projectConfig *config.Config, serverAlias string) (*config.Server, error) {
	if serverAlias != "" {
		return projectConfig.GetServerByAlias(serverAlias)
	}

	remembered, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	if remembered != "" {
		server, err := projectConfig.GetServerByAlias(remembered)
		if err == nil {
			return server, nil
		}
		// The remembered alias was removed from tickd.json; forget it
		// and fall through to the remaining strategies.
		_ = userconfig.SetSelectedServer("")
	}

	if len(projectConfig.Servers) == 1 {
		server, err := projectConfig.GetDefaultServer()
		if err != nil {
			return nil, err
		}
		return remember(server), nil
	}

	server, err := PromptServerSelection(projectConfig)
	if err != nil {
		return nil, err
	}
	return remember(server), nil
}

func remember(server *config.Server) *config.Server {
	if err := userconfig.SetSelectedServer(server.Alias); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save selected server: %v\n", err)
	}
	return server
}

// PromptServerSelection asks the user to pick one of the configured
// servers interactively.
func PromptServerSelection(projectConfig *config.Config) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	labels := make([]string, len(projectConfig.Servers))
	for i, server := range projectConfig.Servers {
		labels[i] = fmt.Sprintf("%s (%s)", server.Alias, server.URL)
	}

	prompt := promptui.Select{
		Label: "Select a server",
		Items: labels,
		Size:  10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}
	return &projectConfig.Servers[index], nil
}
