package commands

import (
	"context"
	"fmt"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tickd-dev/tickd/internal/cli/config"
	"github.com/tickd-dev/tickd/internal/models"
)

type ticketCreator interface {
	CreateTicket(ctx context.Context, in models.CreateTicketInput) (*models.Ticket, error)
}

type createOptions struct {
	client      ticketCreator
	server      *config.Server
	serverAlias string
}

// CreateOption overrides a dependency of the create command.
type CreateOption func(*createOptions)

// WithCreateClient substitutes the API client
func WithCreateClient(c ticketCreator) CreateOption {
	return func(o *createOptions) { o.client = c }
}

// WithCreateServer substitutes the resolved server
func WithCreateServer(s *config.Server) CreateOption {
	return func(o *createOptions) { o.server = s }
}

// NewCreateCmd creates the create command
func NewCreateCmd() *cobra.Command {
	var title, description, priority, serverAlias string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(title, description, priority, func(o *createOptions) {
				o.serverAlias = serverAlias
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Ticket title (required)")
	cmd.Flags().StringVar(&description, "description", "", "What is the problem or request")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: low, medium or high (prompted interactively when omitted)")

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	return cmd
}

func runCreate(title, description, priority string, opts ...CreateOption) error {
	o := &createOptions{}
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

	if priority == "" && term.IsTerminal(int(syscall.Stdin)) {
		selected, err := promptPriority()
		if err != nil {
			return err
		}
		priority = selected
	}

	in := models.CreateTicketInput{
		Title:       title,
		Description: description,
		Priority:    models.TicketPriority(priority),
	}

	ticket, err := o.client.CreateTicket(context.Background(), in)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	fmt.Printf("✓ Ticket created: %s (%s, priority %s)\n", ticket.ID, ticket.Status, ticket.Priority)
	return nil
}

func promptPriority() (string, error) {
	prompt := promptui.Select{
		Label: "Priority",
		Items: []string{"low", "medium", "high"},
		Size:  3,
	}
	_, selected, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("priority selection cancelled: %w", err)
	}
	return selected, nil
}
