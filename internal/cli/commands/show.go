package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tickd-dev/tickd/internal/cli/client"
	"github.com/tickd-dev/tickd/internal/cli/config"
	"github.com/tickd-dev/tickd/internal/models"
)

type ticketGetter interface {
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
}

type showOptions struct {
	client      ticketGetter
	server      *config.Server
	out         io.Writer
	serverAlias string
}

// ShowOption overrides a dependency of the show command.
type ShowOption func(*showOptions)

// WithShowClient substitutes the API client
func WithShowClient(c ticketGetter) ShowOption {
	return func(o *showOptions) { o.client = c }
}

// WithShowServer substitutes the resolved server
func WithShowServer(s *config.Server) ShowOption {
	return func(o *showOptions) { o.server = s }
}

// WithShowOutput substitutes the output writer
func WithShowOutput(w io.Writer) ShowOption {
	return func(o *showOptions) { o.out = w }
}

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show a ticket's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(args[0], func(o *showOptions) {
				o.serverAlias = serverAlias
			})
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runShow(id string, opts ...ShowOption) error {
	o := &showOptions{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	if o.server == nil {
		server, err := getSelectedServer(o.serverAlias)
		if err != nil {
			return err
		}
		o.server = server
	}

	if o.client == nil {
		api, store := newSession(o.server)
		defer store.Close()
		o.client = api
	}

	ticket, err := o.client.GetTicket(context.Background(), id)
	if err != nil {
		// Forbidden is a permission problem: the session stays intact and
		// the message is rendered inline.
		if client.IsForbidden(err) {
			fmt.Fprintln(o.out, "You do not have permission to view this ticket.")
			return nil
		}
		// A missing ticket sends the user back to the list rather than
		// raising an error.
		if client.IsNotFound(err) {
			fmt.Fprintln(o.out, "Ticket not found. See 'tickd ls' for your tickets.")
			return nil
		}
		return err
	}

	fmt.Fprintf(o.out, "%s  [%s]\n\n", ticket.Title, ticket.Status)
	if ticket.Description != "" {
		fmt.Fprintf(o.out, "%s\n\n", ticket.Description)
	} else {
		fmt.Fprint(o.out, "No description provided.\n\n")
	}
	fmt.Fprintf(o.out, "Priority:   %s\n", ticket.Priority)
	fmt.Fprintf(o.out, "Created at: %s\n", ticket.CreatedAt.Format("2006-01-02 15:04"))
	if !ticket.UpdatedAt.IsZero() {
		fmt.Fprintf(o.out, "Updated at: %s\n", ticket.UpdatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}
