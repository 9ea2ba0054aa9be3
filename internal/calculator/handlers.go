package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"omnicalc/internal/engine"
	"omnicalc/internal/handlers"
	"omnicalc/internal/observability"
	"omnicalc/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// Handler serves the calculator endpoints over a set of live sessions.
type Handler struct {
	sessions *session.Manager
}

func NewHandler(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// ---------------------------------------------------------------------------
// Handler: stateless binary operation
// ---------------------------------------------------------------------------

// Apply handles POST /calculator/apply: one binary operation with the
// keypad's arithmetic rules, so division by zero yields 0.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.apply",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "apply", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	op, err := engine.ParseOperation(req.Op)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "apply", "unknown operation", err, http.StatusBadRequest, w)
		return
	}

	if math.IsNaN(req.A) || math.IsInf(req.A, 0) || math.IsNaN(req.B) || math.IsInf(req.B, 0) {
		observability.RecordError(ctx, span, logger, errorCounter, "apply", "invalid numeric input", fmt.Errorf("a=%g b=%g", req.A, req.B), http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(
		attribute.String("calculator.operation", op.String()),
		attribute.Float64("calculator.operand.a", req.A),
		attribute.Float64("calculator.operand.b", req.B),
	)

	start := time.Now()
	value := engine.Apply(req.A, req.B, op)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms
	result := engine.FormatNumber(value)

	attrs := metric.WithAttributes(attribute.String("operation", op.String()))
	opsCounter.Add(ctx, 1, attrs)
	opsHistogram.Record(ctx, elapsed, attrs)
	recordResult(ctx, value, "apply")

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.String("result", result),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetAttributes(attribute.String("calculator.result", result))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator operation completed",
		zap.String("operation", op.String()),
		zap.Float64("a", req.A),
		zap.Float64("b", req.B),
		zap.String("result", result),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, ApplyResponse{
		Operation: op.String(),
		A:         req.A,
		B:         req.B,
		Result:    result,
	})
}

// recordResult feeds the last-result gauge; NaN and ±Inf are skipped.
func recordResult(ctx context.Context, value float64, source string) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	resultGauge.Record(ctx, value, metric.WithAttributes(attribute.String("source", source)))
}

// statusFor maps domain errors onto HTTP statuses and client messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, session.ErrUnknownMode):
		return http.StatusBadRequest, "unknown mode"
	case errors.Is(err, engine.ErrUnknownKey):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrEmptyQuery):
		return http.StatusBadRequest, "query is empty"
	case errors.Is(err, session.ErrKeyUnavailable):
		return http.StatusConflict, err.Error()
	case errors.Is(err, session.ErrModeUnavailable):
		return http.StatusConflict, err.Error()
	case errors.Is(err, session.ErrSolverBusy):
		return http.StatusConflict, "a solve request is already in flight"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
