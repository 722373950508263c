package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// TicketStatus is the lifecycle state of a ticket. The backend owns status
// transitions; this client only ever writes "open" at creation.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusClosed  TicketStatus = "closed"
)

// TicketPriority is the urgency assigned at creation.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Ticket is a support ticket as returned by the API.
type Ticket struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	UserID      string         `json:"user_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateTicketInput is the payload for creating a ticket. Status is not a
// field: new tickets always start open.
type CreateTicketInput struct {
	Title       string         `json:"title" validate:"required,min=3,max=255"`
	Description string         `json:"description" validate:"required"`
	Priority    TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

var validate = validator.New()

// Validate checks the input and fills in the default priority.
func (in *CreateTicketInput) Validate() error {
	if in.Priority == "" {
		in.Priority = TicketPriorityMedium
	}
	if err := validate.Struct(in); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return fmt.Errorf("invalid ticket: field %q failed %q", errs[0].Field(), errs[0].Tag())
		}
		return fmt.Errorf("invalid ticket: %w", err)
	}
	return nil
}

// Counts are the dashboard aggregates over a set of tickets.
type Counts struct {
	Open        int
	Pending     int
	Closed      int
	LastUpdated time.Time
}

// Total returns the number of counted tickets.
func (c Counts) Total() int {
	return c.Open + c.Pending + c.Closed
}

// CountByStatus folds a ticket list into dashboard aggregates. Unknown
// statuses count as pending, mirroring how the dashboard buckets anything
// that is neither open nor closed.
func CountByStatus(tickets []Ticket) Counts {
	var c Counts
	for _, t := range tickets {
		switch t.Status {
		case TicketStatusOpen:
			c.Open++
		case TicketStatusClosed:
			c.Closed++
		default:
			c.Pending++
		}
		if t.UpdatedAt.After(c.LastUpdated) {
			c.LastUpdated = t.UpdatedAt
		}
	}
	return c
}
