package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"omnicalc/internal/engine"
	"omnicalc/internal/handlers"
	"omnicalc/internal/observability"
	"omnicalc/internal/session"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// start opens the span for a session endpoint and returns the logger and
// request ID that go with it.
func start(r *http.Request, opName string) (context.Context, trace.Span, *zap.Logger, string) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.session."+opName,
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
		),
	)
	return ctx, span, logger, requestID
}

func fail(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, err error, w http.ResponseWriter) {
	status, msg := statusFor(err)
	observability.RecordError(ctx, span, logger, errorCounter, opName, msg, err, status, w)
}

func (h *Handler) lookup(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	span.SetAttributes(attribute.String("session.id", id))

	s, err := h.sessions.Get(id)
	if err != nil {
		fail(ctx, span, logger, opName, err, w)
		return nil, false
	}
	return s, true
}

// decodeOptional decodes a JSON body, treating an empty body as zero value.
func decodeOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ---------------------------------------------------------------------------
// Handlers: session lifecycle
// ---------------------------------------------------------------------------

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, requestID := start(r, "create")
	defer span.End()

	var req CreateSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "create", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	s, err := h.sessions.Create(session.Mode(req.Mode))
	if err != nil {
		fail(ctx, span, logger, "create", err, w)
		return
	}

	sessionsActive.Add(ctx, 1)
	span.SetAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("session.mode", string(s.Mode())),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("mode", string(s.Mode())),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusCreated, newSessionResponse(s.Snapshot()))
}

// GetSession handles GET /calculator/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, _ := start(r, "get")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "get", w, r)
	if !ok {
		return
	}

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, newSessionResponse(s.Snapshot()))
}

// DeleteSession handles DELETE /calculator/sessions/{sessionID}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, requestID := start(r, "delete")
	defer span.End()

	id := chi.URLParam(r, "sessionID")
	span.SetAttributes(attribute.String("session.id", id))

	if err := h.sessions.Delete(id); err != nil {
		fail(ctx, span, logger, "delete", err, w)
		return
	}

	sessionsActive.Add(ctx, -1)
	span.SetStatus(codes.Ok, "")

	logger.Info("session ended",
		zap.String("session_id", id),
		zap.String("request_id", requestID),
	)

	w.WriteHeader(http.StatusNoContent)
}

// SetMode handles PUT /calculator/sessions/{sessionID}/mode
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, requestID := start(r, "mode")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "mode", w, r)
	if !ok {
		return
	}

	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "mode", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		fail(ctx, span, logger, "mode", err, w)
		return
	}

	previous := s.Mode()
	if err := s.SetMode(mode); err != nil {
		fail(ctx, span, logger, "mode", err, w)
		return
	}

	span.SetAttributes(
		attribute.String("session.mode.from", string(previous)),
		attribute.String("session.mode.to", string(mode)),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("session mode changed",
		zap.String("session_id", s.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(mode)),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, newSessionResponse(s.Snapshot()))
}

// ---------------------------------------------------------------------------
// Handler: keypad input
// ---------------------------------------------------------------------------

// PressKeys handles POST /calculator/sessions/{sessionID}/keys. Keys are
// applied in order; each one becomes an event on the request span.
func (h *Handler) PressKeys(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, requestID := start(r, "keys")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "keys", w, r)
	if !ok {
		return
	}

	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	if len(req.Keys) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "no keys provided", fmt.Errorf("keys array is empty"), http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(attribute.Int("keys.count", len(req.Keys)))

	began := time.Now()
	steps, err := s.Press(req.Keys...)
	elapsed := float64(time.Since(began).Microseconds()) / 1000.0

	if err != nil {
		fail(ctx, span, logger, "keys", err, w)
		return
	}

	for i, step := range steps {
		keysCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", step.Kind)))

		eventAttrs := []attribute.KeyValue{
			attribute.Int("key.index", i),
			attribute.String("key.label", step.Key),
			attribute.String("display", step.Display),
		}
		if step.Item == nil {
			span.AddEvent("key.pressed", trace.WithAttributes(eventAttrs...))
			continue
		}

		span.AddEvent("calculation.complete", trace.WithAttributes(append(eventAttrs,
			attribute.String("expression", step.Item.Expression),
			attribute.String("result", step.Item.Result),
		)...))
		completionsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "engine")))
		recordResult(ctx, engine.ParseNumber(step.Item.Result), "engine")

		logger.Info("calculation completed",
			zap.String("session_id", s.ID),
			zap.String("expression", step.Item.Expression),
			zap.String("result", step.Item.Result),
			zap.String("request_id", requestID),
		)
	}

	opsHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("operation", "keys")))
	span.SetAttributes(attribute.String("calculator.display", s.Snapshot().State.Display))
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusOK, KeysResponse{
		Steps:   steps,
		Session: newSessionResponse(s.Snapshot()),
	})
}

// ---------------------------------------------------------------------------
// Handlers: history
// ---------------------------------------------------------------------------

// ListHistory handles GET /calculator/sessions/{sessionID}/history
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, _ := start(r, "history")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "history", w, r)
	if !ok {
		return
	}

	items := s.History()
	span.SetAttributes(attribute.Int("history.count", len(items)))
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusOK, HistoryResponse{Items: items, Count: len(items)})
}

// ClearHistory handles DELETE /calculator/sessions/{sessionID}/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, requestID := start(r, "history.clear")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "history.clear", w, r)
	if !ok {
		return
	}

	s.ClearHistory()
	span.SetStatus(codes.Ok, "")

	logger.Info("history cleared",
		zap.String("session_id", s.ID),
		zap.String("request_id", requestID),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Handler: AI solver
// ---------------------------------------------------------------------------

// Solve handles POST /calculator/sessions/{sessionID}/solve
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, requestID := start(r, "solve")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "solve", w, r)
	if !ok {
		return
	}

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "solve", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(attribute.Int("solver.query_length", len(req.Query)))

	began := time.Now()
	item, err := s.Solve(ctx, req.Query)
	elapsed := float64(time.Since(began).Microseconds()) / 1000.0

	if err != nil {
		fail(ctx, span, logger, "solve", err, w)
		return
	}

	solveHistogram.Record(ctx, elapsed)
	completionsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "ai")))

	span.AddEvent("solve.complete", trace.WithAttributes(
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("ai solve completed",
		zap.String("session_id", s.ID),
		zap.Int("query_length", len(req.Query)),
		zap.Float64("duration_ms", elapsed),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, SolveResponse{
		Query:  req.Query,
		Result: item.Result,
		Item:   item,
	})
}
