package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scout.yaml")

	yaml := `
listen:
  port: 9090
model:
  base_url: http://model.local/v1
  name: test-model
agent:
  kind: weather
  max_rounds: 4
auth:
  bearer_token: secret123
history:
  path: /tmp/test.db
  fetch_limit: 25
log_level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen.Port != 9090 {
		t.Errorf("Listen.Port = %d, want 9090", cfg.Listen.Port)
	}
	if cfg.Model.Name != "test-model" {
		t.Errorf("Model.Name = %q, want test-model", cfg.Model.Name)
	}
	if cfg.Agent.Kind != "weather" {
		t.Errorf("Agent.Kind = %q, want weather", cfg.Agent.Kind)
	}
	if cfg.Agent.MaxRounds != 4 {
		t.Errorf("Agent.MaxRounds = %d, want 4", cfg.Agent.MaxRounds)
	}
	if cfg.Auth.BearerToken != "secret123" {
		t.Errorf("Auth.BearerToken = %q, want secret123", cfg.Auth.BearerToken)
	}
	if cfg.History.FetchLimit != 25 {
		t.Errorf("History.FetchLimit = %d, want 25", cfg.History.FetchLimit)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scout.yaml")

	// Minimal config: everything not mentioned keeps its default.
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen.Port != 8080 {
		t.Errorf("default Listen.Port = %d, want 8080", cfg.Listen.Port)
	}
	if cfg.Model.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("default Model.BaseURL = %q", cfg.Model.BaseURL)
	}
	if cfg.Agent.Kind != "github" {
		t.Errorf("default Agent.Kind = %q, want github", cfg.Agent.Kind)
	}
	if cfg.History.FetchLimit != 10 {
		t.Errorf("default History.FetchLimit = %d, want 10", cfg.History.FetchLimit)
	}
	if cfg.Wikipedia.UserAgent != "WikipediaBot/1.0" {
		t.Errorf("default Wikipedia.UserAgent = %q", cfg.Wikipedia.UserAgent)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SCOUT_TEST_TOKEN", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "scout.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  bearer_token: $SCOUT_TEST_TOKEN\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Auth.BearerToken != "from-env" {
		t.Errorf("BearerToken = %q, want from-env", cfg.Auth.BearerToken)
	}
}

func TestFindConfigExplicitMissing(t *testing.T) {
	_, err := FindConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"trace", LevelTrace, false},
		{"debug", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{" debug ", slog.LevelDebug, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
