// Command omnicalc-mcp serves a single calculator session to an MCP client
// over stdin/stdout. Logs go to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"omnicalc/internal/config"
	"omnicalc/internal/history"
	"omnicalc/internal/mcpserver"
	"omnicalc/internal/observability"
	"omnicalc/internal/session"
	"omnicalc/internal/solver"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath  = flag.String("config", os.Getenv("OMNICALC_CONFIG"), "path to a YAML config file")
		modeFlag    = flag.String("mode", string(session.Standard), "initial keypad: standard, scientific or ai")
		versionFlag = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(mcpserver.Name, mcpserver.Version)
		return
	}

	if err := run(*configPath, *modeFlag); err != nil {
		reportFailure(os.Stderr, err)
		os.Exit(1)
	}
}

// reportFailure writes err to w as well as the logger, which is still a
// no-op when startup fails before InitLogger.
func reportFailure(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %v\n", mcpserver.Name, err)
	observability.Logger.Error("mcp server failed", zap.Error(err))
	observability.SyncLogger()
}

func run(configPath, modeName string) error {
	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mode, err := session.ParseMode(modeName)
	if err != nil {
		return err
	}

	// zap's production logger writes to stderr, leaving stdout to the protocol
	if err := observability.InitLogger(); err != nil {
		return err
	}
	defer observability.SyncLogger()

	serviceName := cfg.Telemetry.ServiceName + "-mcp"

	if cfg.Telemetry.Logs {
		logShutdown, err := observability.InitLogging(ctx, serviceName)
		if err != nil {
			return err
		}
		defer logShutdown(ctx)
	}

	traceShutdown, err := observability.InitTracing(ctx, serviceName, cfg.Telemetry.Traces)
	if err != nil {
		return err
	}
	defer traceShutdown(ctx)

	ai, err := newSolver(ctx, cfg)
	if err != nil {
		return err
	}

	store := history.NewStore(history.WithLimit(cfg.History.Limit))
	sess := session.New(uuid.NewString(), mode, store, ai)

	observability.Logger.Info("mcp server starting",
		zap.String("session_id", sess.ID),
		zap.String("mode", string(mode)),
	)
	return mcpserver.Serve(mcpserver.New(sess))
}

func newSolver(ctx context.Context, cfg config.Config) (solver.Solver, error) {
	if !cfg.SolverEnabled() {
		observability.Logger.Warn("no API key configured, solve answers with the failure message")
		return solver.Unavailable{}, nil
	}
	return solver.NewGemini(ctx, solver.GeminiOptions{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
}
