package main

import (
	"context"
	"testing"

	"omnicalc/internal/config"
	"omnicalc/internal/solver"
)

func TestInitSolverWithoutKeyIsUnavailable(t *testing.T) {
	got, err := initSolver(context.Background(), config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got.(solver.Unavailable); !ok {
		t.Fatalf("expected solver.Unavailable, got %T", got)
	}
}
