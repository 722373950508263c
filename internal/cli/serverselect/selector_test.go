package serverselect

import (
	"testing"

	"github.com/tickd-dev/tickd/internal/cli/config"
	"github.com/tickd-dev/tickd/internal/cli/userconfig"
)

func testConfig(servers ...config.Server) *config.Config {
	return &config.Config{Servers: servers}
}

func TestResolveServerExplicitAlias(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := testConfig(
		config.Server{Alias: "production", URL: "https://tickets.example.com"},
		config.Server{Alias: "staging", URL: "http://localhost:8000"},
	)

	server, err := ResolveServer(cfg, "staging")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Alias != "staging" {
		t.Errorf("expected staging, got %s", server.Alias)
	}
}

func TestResolveServerUnknownAlias(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := testConfig(config.Server{Alias: "production", URL: "https://tickets.example.com"})

	if _, err := ResolveServer(cfg, "missing"); err == nil {
		t.Error("expected error for unknown alias, got nil")
	}
}

func TestResolveServerSingleServerFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := testConfig(config.Server{Alias: "production", URL: "https://tickets.example.com"})

	server, err := ResolveServer(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Alias != "production" {
		t.Errorf("expected production, got %s", server.Alias)
	}

	// The fallback is remembered as the selection for next time.
	remembered, err := userconfig.GetSelectedServer()
	if err != nil {
		t.Fatalf("failed to read user config: %v", err)
	}
	if remembered != "production" {
		t.Errorf("expected production to be remembered, got %q", remembered)
	}
}

func TestResolveServerUsesRememberedSelection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := testConfig(
		config.Server{Alias: "production", URL: "https://tickets.example.com"},
		config.Server{Alias: "staging", URL: "http://localhost:8000"},
	)

	if err := userconfig.SetSelectedServer("staging"); err != nil {
		t.Fatalf("failed to set selected server: %v", err)
	}

	server, err := ResolveServer(cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Alias != "staging" {
		t.Errorf("expected remembered staging, got %s", server.Alias)
	}
}
