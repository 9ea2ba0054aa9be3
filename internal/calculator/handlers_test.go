package calculator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"omnicalc/internal/engine"
	"omnicalc/internal/history"
	"omnicalc/internal/observability"
	"omnicalc/internal/session"
	"omnicalc/internal/solver"
	"omnicalc/internal/testutil"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, s solver.Solver) http.Handler {
	t.Helper()
	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(session.NewManager(s)))
	return r
}

func createSession(t *testing.T, router http.Handler, mode string) SessionResponse {
	t.Helper()
	var body any
	if mode != "" {
		body = CreateSessionRequest{Mode: mode}
	}
	rr := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions", body), router)
	testutil.CheckResponseCode(t, http.StatusCreated, rr.Code)

	var resp SessionResponse
	testutil.DecodeJSONBody(t, rr.Body, &resp)
	return resp
}

func pressKeys(t *testing.T, router http.Handler, id string, keys ...string) (int, KeysResponse) {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions/"+id+"/keys", KeysRequest{Keys: keys})
	rr := testutil.ExecuteRequest(req, router)

	var resp KeysResponse
	if rr.Code == http.StatusOK {
		testutil.DecodeJSONBody(t, rr.Body, &resp)
	}
	return rr.Code, resp
}

func TestApply(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name string
		req  ApplyRequest
		want string
	}{
		{"add", ApplyRequest{A: 2, B: 3, Op: "+"}, "5"},
		{"subtract by name", ApplyRequest{A: 2, B: 3, Op: "subtract"}, "-1"},
		{"multiply glyph", ApplyRequest{A: 4, B: 2.5, Op: "×"}, "10"},
		{"divide by zero", ApplyRequest{A: 5, B: 0, Op: "/"}, "0"},
		{"modulo", ApplyRequest{A: -8, B: 5, Op: "%"}, "-3"},
		{"power", ApplyRequest{A: 2, B: 10, Op: "^"}, "1024"},
		{"float noise", ApplyRequest{A: 0.1, B: 0.2, Op: "+"}, "0.30000000000000004"},
		{"modulo by zero", ApplyRequest{A: 1, B: 0, Op: "%"}, "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodPost, "/calculator/apply", tt.req), router)
			testutil.CheckResponseCode(t, http.StatusOK, rr.Code)

			var resp ApplyResponse
			testutil.DecodeJSONBody(t, rr.Body, &resp)
			if resp.Result != tt.want {
				t.Fatalf("expected result %q, got %q", tt.want, resp.Result)
			}
		})
	}
}

func TestApplyRejectsBadInput(t *testing.T) {
	router := newTestRouter(t, nil)

	for name, body := range map[string]any{
		"unknown op": ApplyRequest{A: 1, B: 2, Op: "root"},
		"missing op": ApplyRequest{A: 1, B: 2},
		"bad json":   "not an object",
	} {
		t.Run(name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodPost, "/calculator/apply", body), router)
			testutil.CheckResponseCode(t, http.StatusBadRequest, rr.Code)

			var payload map[string]string
			testutil.DecodeJSONBody(t, rr.Body, &payload)
			if payload["error"] == "" {
				t.Fatalf("expected error message, got %#v", payload)
			}
		})
	}
}

func TestCreateSessionDefaultsToStandard(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := createSession(t, router, "")
	if resp.ID == "" || resp.Mode != "standard" || resp.Display != "0" || resp.Equation != "" {
		t.Fatalf("unexpected session %+v", resp)
	}
	if resp.PreviousValue != nil || resp.AwaitingNewInput {
		t.Fatalf("expected initial state, got %+v", resp)
	}
	if resp.HistoryLimit != history.DefaultLimit || resp.HistoryCount != 0 {
		t.Fatalf("expected empty history capped at %d, got %+v", history.DefaultLimit, resp)
	}
}

func TestCreateSessionUnknownMode(t *testing.T) {
	router := newTestRouter(t, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions", CreateSessionRequest{Mode: "graphing"})
	rr := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestPressKeysCompletesCalculation(t *testing.T) {
	router := newTestRouter(t, nil)
	id := createSession(t, router, "standard").ID

	code, resp := pressKeys(t, router, id, "1", "2", "+", "3", "=")
	testutil.CheckResponseCode(t, http.StatusOK, code)

	if len(resp.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(resp.Steps))
	}
	last := resp.Steps[4]
	if last.Kind != "equal" || last.Item == nil || last.Item.Expression != "12 + 3 =" || last.Item.Result != "15" {
		t.Fatalf("unexpected equals step %+v", last)
	}
	if resp.Session.Display != "15" || !resp.Session.AwaitingNewInput || resp.Session.HistoryCount != 1 {
		t.Fatalf("unexpected session %+v", resp.Session)
	}
}

func TestPressKeysShowsPendingOperation(t *testing.T) {
	router := newTestRouter(t, nil)
	id := createSession(t, router, "").ID

	_, resp := pressKeys(t, router, id, "7", "×")
	if resp.Session.Equation != "7 *" || resp.Session.PendingOperation != "*" {
		t.Fatalf("unexpected session %+v", resp.Session)
	}
	if resp.Session.PreviousValue == nil || *resp.Session.PreviousValue != "7" {
		t.Fatalf("expected previous value 7, got %v", resp.Session.PreviousValue)
	}
}

func TestPressKeysErrors(t *testing.T) {
	router := newTestRouter(t, nil)
	id := createSession(t, router, "standard").ID

	tests := []struct {
		name string
		id   string
		keys []string
		want int
	}{
		{"unknown session", "missing", []string{"1"}, http.StatusNotFound},
		{"unknown key", id, []string{"1", "?"}, http.StatusBadRequest},
		{"no keys", id, nil, http.StatusBadRequest},
		{"scientific key on standard pad", id, []string{"2", "sin"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := pressKeys(t, router, tt.id, tt.keys...)
			testutil.CheckResponseCode(t, tt.want, code)
		})
	}

	rr := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodGet, "/calculator/sessions/"+id, nil), router)
	testutil.CheckResponseCode(t, http.StatusOK, rr.Code)

	var resp SessionResponse
	testutil.DecodeJSONBody(t, rr.Body, &resp)
	if resp.Display != "0" {
		t.Fatalf("expected rejected batches to leave the display alone, got %q", resp.Display)
	}
}

func TestSetMode(t *testing.T) {
	router := newTestRouter(t, nil)
	id := createSession(t, router, "standard").ID

	req := testutil.NewJSONRequest(t, http.MethodPut, "/calculator/sessions/"+id+"/mode", ModeRequest{Mode: "scientific"})
	rr := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusOK, rr.Code)

	code, resp := pressKeys(t, router, id, "pi")
	testutil.CheckResponseCode(t, http.StatusOK, code)
	if want := engine.FormatNumber(3.141592653589793); resp.Session.Display != want {
		t.Fatalf("expected %q, got %q", want, resp.Session.Display)
	}

	req = testutil.NewJSONRequest(t, http.MethodPut, "/calculator/sessions/"+id+"/mode", ModeRequest{Mode: "graphing"})
	rr = testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryListAndClear(t *testing.T) {
	router := newTestRouter(t, nil)
	id := createSession(t, router, "").ID

	pressKeys(t, router, id, "1", "+", "1", "=", "2", "*", "3", "=")

	rr := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodGet, "/calculator/sessions/"+id+"/history", nil), router)
	testutil.CheckResponseCode(t, http.StatusOK, rr.Code)

	var list HistoryResponse
	testutil.DecodeJSONBody(t, rr.Body, &list)
	if list.Count != 2 || len(list.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", list)
	}
	if list.Items[0].Expression != "2 * 3 =" || list.Items[1].Expression != "1 + 1 =" {
		t.Fatalf("expected newest first, got %+v", list.Items)
	}

	rr = testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodDelete, "/calculator/sessions/"+id+"/history", nil), router)
	testutil.CheckResponseCode(t, http.StatusNoContent, rr.Code)

	rr = testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodGet, "/calculator/sessions/"+id+"/history", nil), router)
	testutil.DecodeJSONBody(t, rr.Body, &list)
	if list.Count != 0 {
		t.Fatalf("expected empty history, got %+v", list)
	}
}

func TestSolve(t *testing.T) {
	router := newTestRouter(t, solver.Func(func(_ context.Context, q string) string {
		return "answer to " + q
	}))
	id := createSession(t, router, "ai").ID

	req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions/"+id+"/solve", SolveRequest{Query: "2+2"})
	rr := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusOK, rr.Code)

	var resp SolveResponse
	testutil.DecodeJSONBody(t, rr.Body, &resp)
	if resp.Result != "answer to 2+2" || resp.Item.Expression != "AI: 2+2" {
		t.Fatalf("unexpected solve response %+v", resp)
	}

	rr = testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodGet, "/calculator/sessions/"+id, nil), router)
	var snap SessionResponse
	testutil.DecodeJSONBody(t, rr.Body, &snap)
	if snap.LastAnswer != "answer to 2+2" || snap.HistoryCount != 1 {
		t.Fatalf("unexpected session %+v", snap)
	}
}

func TestSolveErrors(t *testing.T) {
	router := newTestRouter(t, nil)
	ai := createSession(t, router, "ai").ID
	std := createSession(t, router, "standard").ID

	tests := []struct {
		name  string
		id    string
		query string
		want  int
	}{
		{"blank query", ai, "  ", http.StatusBadRequest},
		{"wrong mode", std, "1+1", http.StatusConflict},
		{"unknown session", "missing", "1+1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions/"+tt.id+"/solve", SolveRequest{Query: tt.query})
			rr := testutil.ExecuteRequest(req, router)
			testutil.CheckResponseCode(t, tt.want, rr.Code)
		})
	}
}

func TestSolveRejectsConcurrentRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	router := newTestRouter(t, solver.Func(func(context.Context, string) string {
		close(started)
		<-release
		return "42"
	}))
	id := createSession(t, router, "ai").ID
	target := "/calculator/sessions/" + id + "/solve"

	var wg sync.WaitGroup
	wg.Add(1)
	var firstCode int
	go func() {
		defer wg.Done()
		rr := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodPost, target, SolveRequest{Query: "first"}), router)
		firstCode = rr.Code
	}()

	<-started
	rr := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodPost, target, SolveRequest{Query: "second"}), router)
	testutil.CheckResponseCode(t, http.StatusConflict, rr.Code)

	close(release)
	wg.Wait()
	testutil.CheckResponseCode(t, http.StatusOK, firstCode)
}

func TestDeleteSession(t *testing.T) {
	router := newTestRouter(t, nil)
	id := createSession(t, router, "").ID

	rr := testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodDelete, "/calculator/sessions/"+id, nil), router)
	testutil.CheckResponseCode(t, http.StatusNoContent, rr.Code)

	rr = testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodGet, "/calculator/sessions/"+id, nil), router)
	testutil.CheckResponseCode(t, http.StatusNotFound, rr.Code)

	rr = testutil.ExecuteRequest(testutil.NewJSONRequest(t, http.MethodDelete, "/calculator/sessions/"+id, nil), router)
	testutil.CheckResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", session.ErrNotFound), http.StatusNotFound},
		{session.ErrUnknownMode, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", engine.ErrUnknownKey, "?"), http.StatusBadRequest},
		{session.ErrEmptyQuery, http.StatusBadRequest},
		{session.ErrKeyUnavailable, http.StatusConflict},
		{session.ErrModeUnavailable, http.StatusConflict},
		{session.ErrSolverBusy, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
