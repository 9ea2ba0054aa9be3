package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"omnicalc/internal/config"
	"omnicalc/internal/solver"
)

func TestReportFailureWritesWithoutLogger(t *testing.T) {
	var buf bytes.Buffer

	reportFailure(&buf, errors.New("parse config omnicalc.yaml: bad"))

	if got := buf.String(); got != "omnicalc-mcp: parse config omnicalc.yaml: bad\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunFailsBeforeServingOnBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnicalc.yaml")
	if err := os.WriteFile(path, []byte("bogus: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := run(path, "standard")
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected a config error, got %v", err)
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	if err := run("", "graphing"); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}

func TestNewSolverWithoutKeyIsUnavailable(t *testing.T) {
	got, err := newSolver(context.Background(), config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got.(solver.Unavailable); !ok {
		t.Fatalf("expected solver.Unavailable, got %T", got)
	}
}
