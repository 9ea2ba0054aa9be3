package main

import (
	"context"

	"omnicalc/internal/calculator"
	"omnicalc/internal/config"
	"omnicalc/internal/observability"
	"omnicalc/internal/solver"

	"go.uber.org/zap"
)

// initMetrics initialises all metric providers and application-specific
// metric instruments.
func initMetrics(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	shutdown, err := observability.InitMetrics(ctx, cfg.ServiceName, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	if err := calculator.InitMetrics(); err != nil {
		return nil, err
	}

	return shutdown, nil
}

// initSolver returns the Gemini solver, or one that always fails when no
// API key is configured.
func initSolver(ctx context.Context, cfg config.Config) (solver.Solver, error) {
	if !cfg.SolverEnabled() {
		observability.Logger.Warn("no API key configured, AI mode answers with the failure message")
		return solver.Unavailable{}, nil
	}

	g, err := solver.NewGemini(ctx, solver.GeminiOptions{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		return nil, err
	}

	observability.Logger.Info("ai solver ready", zap.String("model", cfg.AI.Model))
	return g, nil
}
