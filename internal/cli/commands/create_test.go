package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/tickd-dev/tickd/internal/models"
)

type mockTicketCreator struct {
	gotInput   models.CreateTicketInput
	shouldFail bool
	failWith   error
}

func (m *mockTicketCreator) CreateTicket(ctx context.Context, in models.CreateTicketInput) (*models.Ticket, error) {
	m.gotInput = in
	if m.shouldFail {
		return nil, m.failWith
	}
	return &models.Ticket{
		ID:       "42",
		Title:    in.Title,
		Status:   models.TicketStatusOpen,
		Priority: in.Priority,
	}, nil
}

func TestCreateCommand_PassesInputThrough(t *testing.T) {
	mockAPI := &mockTicketCreator{}

	err := runCreate("Login broken", "500 on submit", "high",
		WithCreateClient(mockAPI),
		WithCreateServer(testServer()),
	)

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if mockAPI.gotInput.Title != "Login broken" {
		t.Errorf("expected title to reach the client, got: %q", mockAPI.gotInput.Title)
	}
	if mockAPI.gotInput.Priority != models.TicketPriorityHigh {
		t.Errorf("expected high priority, got: %q", mockAPI.gotInput.Priority)
	}
}

func TestCreateCommand_APIFailure(t *testing.T) {
	mockAPI := &mockTicketCreator{
		shouldFail: true,
		failWith:   &mockCreateError{},
	}

	err := runCreate("Login broken", "500 on submit", "low",
		WithCreateClient(mockAPI),
		WithCreateServer(testServer()),
	)

	if err == nil {
		t.Fatal("expected error when API fails, but got success")
	}
	if !strings.Contains(err.Error(), "failed to create ticket") {
		t.Errorf("expected wrapped create error, got: %s", err.Error())
	}
}

func TestCreateCommand_NoConfigFile(t *testing.T) {
	tempDir := t.TempDir()

	originalDir := mustGetwd(t)
	mustChdir(t, tempDir)
	defer mustChdir(t, originalDir)

	err := runCreate("Login broken", "500 on submit", "low")
	if err == nil {
		t.Fatal("expected error when config file is missing, got nil")
	}
}

type mockCreateError struct{}

func (e *mockCreateError) Error() string { return "title is too short" }
