package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tickd-dev/tickd/internal/cli/client"
	"github.com/tickd-dev/tickd/internal/cli/config"
	"github.com/tickd-dev/tickd/internal/models"
)

type statusOptions struct {
	client      ticketLister
	server      *config.Server
	out         io.Writer
	serverAlias string
}

// StatusOption overrides a dependency of the status command.
type StatusOption func(*statusOptions)

// WithStatusClient substitutes the API client
func WithStatusClient(c ticketLister) StatusOption {
	return func(o *statusOptions) { o.client = c }
}

// WithStatusServer substitutes the resolved server
func WithStatusServer(s *config.Server) StatusOption {
	return func(o *statusOptions) { o.server = s }
}

// WithStatusOutput substitutes the output writer
func WithStatusOutput(w io.Writer) StatusOption {
	return func(o *statusOptions) { o.out = w }
}

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show ticket counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(func(o *statusOptions) {
				o.serverAlias = serverAlias
			})
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runStatus(opts ...StatusOption) error {
	o := &statusOptions{out: os.Stdout}
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

	tickets, err := o.client.ListTickets(context.Background(), client.ListTicketsOptions{})
	if err != nil {
		return err
	}

	counts := models.CountByStatus(tickets)

	fmt.Fprintf(o.out, "Tickets on %s:\n\n", o.server.Alias)

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Open\t%d\n", counts.Open)
	fmt.Fprintf(w, "Pending\t%d\n", counts.Pending)
	fmt.Fprintf(w, "Closed\t%d\n", counts.Closed)
	fmt.Fprintf(w, "Total\t%d\n", counts.Total())
	w.Flush()

	if !counts.LastUpdated.IsZero() {
		fmt.Fprintf(o.out, "\nLast update: %s\n", counts.LastUpdated.Format("2006-01-02 15:04"))
	}

	return nil
}
