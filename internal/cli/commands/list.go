package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tickd-dev/tickd/internal/cli/auth"
	"github.com/tickd-dev/tickd/internal/cli/client"
	"github.com/tickd-dev/tickd/internal/cli/config"
	"github.com/tickd-dev/tickd/internal/models"
)

// ticketLister is the slice of the API client the list command needs,
// kept narrow so tests can substitute it.
type ticketLister interface {
	ListTickets(ctx context.Context, opts client.ListTicketsOptions) ([]models.Ticket, error)
}

type listOptions struct {
	client      ticketLister
	server      *config.Server
	out         io.Writer
	serverAlias string
	mine        bool
}

// ListOption overrides a dependency of the list command.
type ListOption func(*listOptions)

// WithListClient substitutes the API client
func WithListClient(c ticketLister) ListOption {
	return func(o *listOptions) { o.client = c }
}

// WithListServer substitutes the resolved server
func WithListServer(s *config.Server) ListOption {
	return func(o *listOptions) { o.server = s }
}

// WithListOutput substitutes the output writer
func WithListOutput(w io.Writer) ListOption {
	return func(o *listOptions) { o.out = w }
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var serverAlias string
	var mine bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(func(o *listOptions) {
				o.serverAlias = serverAlias
				o.mine = mine
			})
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only tickets you own")

	return cmd
}

func runList(opts ...ListOption) error {
	o := &listOptions{out: os.Stdout}
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

	listOpts := client.ListTicketsOptions{}
	if o.mine {
		// The owner filter needs the persisted user id.
		rec, err := auth.NewStorage(o.server.Alias).Load()
		if err != nil || rec.User == nil {
			return fmt.Errorf("cannot filter by owner: not logged in. Run 'tickd login' first")
		}
		listOpts.Owner = rec.User.ID
	}

	tickets, err := o.client.ListTickets(context.Background(), listOpts)
	if err != nil {
		return err
	}

	if len(tickets) == 0 {
		fmt.Fprintln(o.out, "No tickets found.")
		fmt.Fprintln(o.out, "\nCreate one with: tickd create --title \"...\"")
		return nil
	}

	fmt.Fprintf(o.out, "Tickets on %s (%s):\n\n", o.server.Alias, o.server.URL)

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tCREATED AT")
	fmt.Fprintln(w, "──\t─────\t──────\t────────\t──────────")

	for _, ticket := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ticket.ID,
			ticket.Title,
			ticket.Status,
			ticket.Priority,
			ticket.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	w.Flush()

	return nil
}
