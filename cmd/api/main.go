package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"omnicalc/internal/calculator"
	"omnicalc/internal/config"
	"omnicalc/internal/observability"
	"omnicalc/internal/server"
	"omnicalc/internal/session"

	"go.uber.org/zap"
)

func main() {

	configPath := flag.String("config", os.Getenv("OMNICALC_CONFIG"), "path to a YAML config file")
	flag.Parse()

	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// Logger
	err = observability.InitLogger()
	if err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	if cfg.Telemetry.Logs {
		logShutdown, err := observability.InitLogging(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			panic(err)
		}
		defer logShutdown(ctx)
	}

	// Tracing
	traceShutdown, err := observability.InitTracing(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Traces)
	if err != nil {
		panic(err)
	}
	defer traceShutdown(ctx)

	// Metrics
	metricShutdown, err := initMetrics(ctx, cfg.Telemetry)
	if err != nil {
		panic(err)
	}
	defer metricShutdown(ctx)

	// Calculator
	ai, err := initSolver(ctx, cfg)
	if err != nil {
		panic(err)
	}
	sessions := session.NewManager(ai, session.WithHistoryLimit(cfg.History.Limit))

	// Router
	router := server.NewRouter(calculator.NewHandler(sessions))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		observability.Logger.Info("server started", zap.String("addr", cfg.Server.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv, cfg.Server.ShutdownTimeout)
}

func waitForShutdown(srv *http.Server, timeout time.Duration) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Warn("shutdown incomplete", zap.Error(err))
	}
	observability.Logger.Info("server stopped")
}
