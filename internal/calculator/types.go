package calculator

import (
	"time"

	"omnicalc/internal/engine"
	"omnicalc/internal/history"
	"omnicalc/internal/session"
)

// ApplyRequest is the JSON body for POST /calculator/apply.
type ApplyRequest struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	Op string  `json:"op"` // "+", "-", "*", "/", "%", "^" or the operation name
}

// ApplyResponse carries the result as display text, since it may be NaN.
type ApplyResponse struct {
	Operation string  `json:"operation"`
	A         float64 `json:"a"`
	B         float64 `json:"b"`
	Result    string  `json:"result"`
}

// CreateSessionRequest is the optional JSON body for POST /calculator/sessions.
type CreateSessionRequest struct {
	Mode string `json:"mode"`
}

// ModeRequest is the JSON body for PUT /calculator/sessions/{id}/mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// KeysRequest is the JSON body for POST /calculator/sessions/{id}/keys.
type KeysRequest struct {
	Keys []string `json:"keys"`
}

// SolveRequest is the JSON body for POST /calculator/sessions/{id}/solve.
type SolveRequest struct {
	Query string `json:"query"`
}

// SessionResponse describes a session and its calculator state.
type SessionResponse struct {
	ID               string    `json:"id"`
	Mode             string    `json:"mode"`
	Display          string    `json:"display"`
	Equation         string    `json:"equation"`
	PreviousValue    *string   `json:"previous_value,omitempty"`
	PendingOperation string    `json:"pending_operation,omitempty"`
	AwaitingNewInput bool      `json:"awaiting_new_input"`
	HistoryCount     int       `json:"history_count"`
	HistoryLimit     int       `json:"history_limit"`
	SolverBusy       bool      `json:"solver_busy"`
	LastAnswer       string    `json:"last_answer,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// KeysResponse lists the effect of each pressed key.
type KeysResponse struct {
	Steps   []session.Step  `json:"steps"`
	Session SessionResponse `json:"session"`
}

type HistoryResponse struct {
	Items []history.Item `json:"items"`
	Count int            `json:"count"`
}

type SolveResponse struct {
	Query  string       `json:"query"`
	Result string       `json:"result"`
	Item   history.Item `json:"item"`
}

func newSessionResponse(snap session.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:               snap.ID,
		Mode:             string(snap.Mode),
		Display:          snap.State.Display,
		Equation:         snap.State.Equation,
		PendingOperation: string(snap.State.PendingOperation),
		AwaitingNewInput: snap.State.AwaitingNewInput,
		HistoryCount:     snap.History,
		HistoryLimit:     snap.HistoryLimit,
		SolverBusy:       snap.SolverBusy,
		LastAnswer:       snap.LastAnswer,
		CreatedAt:        snap.CreatedAt,
	}
	if snap.State.PreviousValue != nil {
		prev := engine.FormatNumber(*snap.State.PreviousValue)
		resp.PreviousValue = &prev
	}
	return resp
}
