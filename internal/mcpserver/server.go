// Package mcpserver exposes one calculator session as Model Context
// Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"omnicalc/internal/engine"
	"omnicalc/internal/observability"
	"omnicalc/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	Name    = "omnicalc-mcp"
	Version = "0.1.0"

	HistoryURI = "omnicalc://history"
)

var tracer = otel.Tracer("mcpserver")

// State is the JSON body returned by the state-changing tools.
type State struct {
	Mode             string         `json:"mode"`
	Display          string         `json:"display"`
	Equation         string         `json:"equation"`
	PreviousValue    *string        `json:"previous_value,omitempty"`
	PendingOperation string         `json:"pending_operation,omitempty"`
	AwaitingNewInput bool           `json:"awaiting_new_input"`
	HistoryCount     int            `json:"history_count"`
	HistoryLimit     int            `json:"history_limit"`
	LastAnswer       string         `json:"last_answer,omitempty"`
	Steps            []session.Step `json:"steps,omitempty"`
}

func stateOf(snap session.Snapshot) State {
	st := State{
		Mode:             string(snap.Mode),
		Display:          snap.State.Display,
		Equation:         snap.State.Equation,
		PendingOperation: string(snap.State.PendingOperation),
		AwaitingNewInput: snap.State.AwaitingNewInput,
		HistoryCount:     snap.History,
		HistoryLimit:     snap.HistoryLimit,
		LastAnswer:       snap.LastAnswer,
	}
	if snap.State.PreviousValue != nil {
		prev := engine.FormatNumber(*snap.State.PreviousValue)
		st.PreviousValue = &prev
	}
	return st
}

type tools struct {
	sess *session.Session
}

// New builds an MCP server whose tools drive sess.
func New(sess *session.Session) *server.MCPServer {
	s := server.NewMCPServer(Name, Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithLogging(),
		server.WithRecovery(),
	)

	t := &tools{sess: sess}

	s.AddTool(mcp.NewTool("press_keys",
		mcp.WithDescription("Press calculator keys in order, e.g. \"1 2 + 3 =\". Accepts digits, '.', + - * / % ^ (or × ÷), =, AC, +/-, sin cos tan sqrt log exp pi."),
		mcp.WithString("keys",
			mcp.Required(),
			mcp.Description("Space-separated key labels"),
		),
	), t.pressKeys)

	s.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Show the calculator display, pending equation and mode"),
	), t.getState)

	s.AddTool(mcp.NewTool("set_mode",
		mcp.WithDescription("Switch keypad. Entering or leaving ai mode resets the calculator."),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Enum(string(session.Standard), string(session.Scientific), string(session.AI)),
			mcp.Description("standard, scientific or ai"),
		),
	), t.setMode)

	s.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("List completed calculations, newest first"),
	), t.getHistory)

	s.AddTool(mcp.NewTool("clear_history",
		mcp.WithDescription("Remove every history entry"),
	), t.clearHistory)

	s.AddTool(mcp.NewTool("solve",
		mcp.WithDescription("Ask the AI solver a natural-language math question. Requires ai mode."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question, e.g. \"what is 15% of 1500\""),
		),
	), t.solve)

	s.AddResource(mcp.NewResource(HistoryURI, "Calculation history",
		mcp.WithResourceDescription("Completed calculations, newest first"),
		mcp.WithMIMEType("application/json"),
	), t.readHistory)

	return s
}

// Serve runs s over stdin/stdout until the input closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func stringArg(request mcp.CallToolRequest, name string) (string, bool) {
	v, ok := request.GetArguments()[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError records a failed call and hands it back as a tool result.
func toolError(ctx context.Context, span trace.Span, tool string, err error) *mcp.CallToolResult {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	observability.LoggerWithTrace(ctx).Warn("tool call failed",
		zap.String("tool", tool),
		zap.Error(err),
	)
	return mcp.NewToolResultError(err.Error())
}

func (t *tools) start(ctx context.Context, tool string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "mcp.tool."+tool, trace.WithAttributes(
		attribute.String("mcp.tool", tool),
		attribute.String("session.id", t.sess.ID),
	))
}

func (t *tools) pressKeys(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := t.start(ctx, "press_keys")
	defer span.End()

	raw, ok := stringArg(request, "keys")
	if !ok {
		return mcp.NewToolResultError("keys is required"), nil
	}

	labels := strings.Fields(raw)
	span.SetAttributes(attribute.Int("keys.count", len(labels)))

	steps, err := t.sess.Press(labels...)
	if err != nil {
		return toolError(ctx, span, "press_keys", err), nil
	}

	st := stateOf(t.sess.Snapshot())
	st.Steps = steps
	span.SetStatus(codes.Ok, "")
	return jsonResult(st)
}

func (t *tools) getState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := t.start(ctx, "get_state")
	defer span.End()

	span.SetStatus(codes.Ok, "")
	return jsonResult(stateOf(t.sess.Snapshot()))
}

func (t *tools) setMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := t.start(ctx, "set_mode")
	defer span.End()

	raw, ok := stringArg(request, "mode")
	if !ok {
		return mcp.NewToolResultError("mode is required"), nil
	}

	mode, err := session.ParseMode(raw)
	if err == nil {
		err = t.sess.SetMode(mode)
	}
	if err != nil {
		return toolError(ctx, span, "set_mode", err), nil
	}

	span.SetStatus(codes.Ok, "")
	return jsonResult(stateOf(t.sess.Snapshot()))
}

func (t *tools) getHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := t.start(ctx, "get_history")
	defer span.End()

	span.SetStatus(codes.Ok, "")
	return jsonResult(t.sess.History())
}

func (t *tools) clearHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := t.start(ctx, "clear_history")
	defer span.End()

	t.sess.ClearHistory()
	span.SetStatus(codes.Ok, "")
	return mcp.NewToolResultText("history cleared"), nil
}

func (t *tools) solve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := t.start(ctx, "solve")
	defer span.End()

	query, ok := stringArg(request, "query")
	if !ok {
		return mcp.NewToolResultError("query is required"), nil
	}

	item, err := t.sess.Solve(ctx, query)
	if err != nil {
		if errors.Is(err, session.ErrModeUnavailable) {
			err = fmt.Errorf("%w; call set_mode with mode \"ai\" first", err)
		}
		return toolError(ctx, span, "solve", err), nil
	}

	span.SetStatus(codes.Ok, "")
	return mcp.NewToolResultText(item.Result), nil
}

func (t *tools) readHistory(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(t.sess.History(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      HistoryURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
