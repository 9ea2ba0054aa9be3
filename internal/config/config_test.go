package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "omnicalc.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithEnv("", envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.AI.Timeout != 0 {
		t.Fatalf("expected no ai timeout by default, got %s", cfg.AI.Timeout)
	}
	if cfg.Server.Addr != ":8080" || cfg.History.Limit != 50 || cfg.AI.Model != "gemini-3-flash-preview" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SolverEnabled() {
		t.Fatal("expected solver disabled without a key")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9090"
  shutdown_timeout: 10s
history:
  limit: 20
ai:
  model: gemini-2.5-flash
  timeout: 5s
telemetry:
  logs: true
`)

	cfg, err := LoadWithEnv(path, envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.History.Limit != 20 {
		t.Fatalf("expected limit 20, got %d", cfg.History.Limit)
	}
	if cfg.AI.Model != "gemini-2.5-flash" || cfg.AI.Timeout != 5*time.Second || cfg.AI.Temperature != 0.1 {
		t.Fatalf("unexpected ai config %+v", cfg.AI)
	}
	if !cfg.Telemetry.Logs || !cfg.Telemetry.Traces || cfg.Telemetry.ServiceName != "omnicalc" {
		t.Fatalf("unexpected telemetry config %+v", cfg.Telemetry)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  addr: \":9090\"\n")

	cfg, err := LoadWithEnv(path, envMap(map[string]string{
		"OMNICALC_ADDR":           ":7070",
		"OMNICALC_HISTORY_LIMIT":  "5",
		"OMNICALC_AI_TEMPERATURE": "0.7",
		"OMNICALC_OTLP_TRACES":    "false",
		"OTEL_SERVICE_NAME":       "calc-test",
		"API_KEY":                 "from-api-key",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":7070" || cfg.History.Limit != 5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.AI.Temperature != 0.7 || cfg.AI.APIKey != "from-api-key" || !cfg.SolverEnabled() {
		t.Fatalf("unexpected ai config %+v", cfg.AI)
	}
	if cfg.Telemetry.Traces || cfg.Telemetry.ServiceName != "calc-test" {
		t.Fatalf("unexpected telemetry config %+v", cfg.Telemetry)
	}
}

func TestGeminiKeyWinsOverAPIKey(t *testing.T) {
	cfg, err := LoadWithEnv("", envMap(map[string]string{
		"API_KEY":        "a",
		"GEMINI_API_KEY": "g",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AI.APIKey != "g" {
		t.Fatalf("expected GEMINI_API_KEY, got %q", cfg.AI.APIKey)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{"unknown field", "server:\n  port: 80\n", nil, "field port not found"},
		{"bad duration", "server:\n  shutdown_timeout: soon\n", nil, "parse config"},
		{"bad history env", "", map[string]string{"OMNICALC_HISTORY_LIMIT": "many"}, "OMNICALC_HISTORY_LIMIT"},
		{"bad bool env", "", map[string]string{"OMNICALC_OTLP_LOGS": "maybe"}, "OMNICALC_OTLP_LOGS"},
		{"zero limit", "history:\n  limit: 0\n", nil, "history.limit"},
		{"temperature range", "ai:\n  temperature: 3\n", nil, "ai.temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			_, err := LoadWithEnv(path, envMap(tt.env))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil)); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadWithEnv(writeFile(t, ""), envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
