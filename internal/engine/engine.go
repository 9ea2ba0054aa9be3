// Package engine implements the calculator's input state machine: digits,
// operators, equals, clear, negate and scientific functions applied one
// at a time against a display, with completed calculations reported to a
// Recorder.
package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKey       = errors.New("unknown key")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnknownFunction  = errors.New("unknown function")
	ErrInvalidDigit     = errors.New("invalid digit")
)

// Recorder receives every completed calculation.
type Recorder interface {
	Record(expression, result string)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(expression, result string)

func (f RecorderFunc) Record(expression, result string) { f(expression, result) }

type discard struct{}

func (discard) Record(string, string) {}

// State is the calculator's visible and pending state.
//
// PendingOperation is OpNone exactly when PreviousValue is nil.
type State struct {
	Display          string
	Equation         string
	PreviousValue    *float64
	PendingOperation Operation
	AwaitingNewInput bool
}

// InitialState is the state of a freshly opened calculator.
func InitialState() State {
	return State{Display: "0"}
}

// Engine owns a State and mutates it in place. It is not safe for
// concurrent use; callers serialize events.
type Engine struct {
	state    State
	recorder Recorder

	// set by an operator press, cleared by every other event; a second
	// operator in a row re-binds instead of computing.
	operatorPressed bool
}

// New returns an engine in the initial state. A nil recorder discards
// completed calculations.
func New(recorder Recorder) *Engine {
	if recorder == nil {
		recorder = discard{}
	}
	return &Engine{state: InitialState(), recorder: recorder}
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	s := e.state
	if s.PreviousValue != nil {
		v := *s.PreviousValue
		s.PreviousValue = &v
	}
	return s
}

// Display returns the current display text.
func (e *Engine) Display() string { return e.state.Display }

// InputDigit enters "0"-"9" or ".". A display of "0", or any display
// right after an operator, equals or function, is replaced rather than
// appended to. Repeated decimal points are not rejected.
func (e *Engine) InputDigit(token string) error {
	if !isDigitToken(token) {
		return ErrInvalidDigit
	}
	e.operatorPressed = false

	if e.state.AwaitingNewInput || e.state.Display == "0" {
		e.state.Display = token
		e.state.AwaitingNewInput = false
		return nil
	}
	e.state.Display += token
	return nil
}

// InputOperator sets the pending operator. With an operand already held
// and a fresh number typed since, the held operation is evaluated first
// and its result shown, so a op b op c chains left to right.
func (e *Engine) InputOperator(op Operation) error {
	if !op.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}

	current := ParseNumber(e.state.Display)

	switch {
	case e.state.PreviousValue == nil:
		e.state.PreviousValue = &current
	case e.operatorPressed:
		// re-bind only
	default:
		result := Apply(*e.state.PreviousValue, current, e.state.PendingOperation)
		e.state.PreviousValue = &result
		e.state.Display = FormatNumber(result)
	}

	e.state.PendingOperation = op
	e.state.Equation = e.state.Display + " " + string(op)
	e.state.AwaitingNewInput = true
	e.operatorPressed = true
	return nil
}

// HandleEqual completes the pending operation and records it. It reports
// false, leaving the state untouched, when nothing is pending.
func (e *Engine) HandleEqual() bool {
	if e.state.PreviousValue == nil || e.state.PendingOperation == OpNone {
		return false
	}
	e.operatorPressed = false

	prev := *e.state.PreviousValue
	op := e.state.PendingOperation
	current := ParseNumber(e.state.Display)
	result := FormatNumber(Apply(prev, current, op))

	expression := FormatNumber(prev) + " " + string(op) + " " + FormatNumber(current) + " ="
	e.recorder.Record(expression, result)

	e.state.Display = result
	e.state.Equation = ""
	e.state.PreviousValue = nil
	e.state.PendingOperation = OpNone
	e.state.AwaitingNewInput = true
	return true
}

// HandleClear resets the display and drops any pending operation.
// AwaitingNewInput keeps its value.
func (e *Engine) HandleClear() {
	e.operatorPressed = false
	e.state.Display = "0"
	e.state.Equation = ""
	e.state.PreviousValue = nil
	e.state.PendingOperation = OpNone
}

// Negate flips the sign of the displayed number.
func (e *Engine) Negate() {
	e.operatorPressed = false
	e.state.Display = FormatNumber(-ParseNumber(e.state.Display))
}

// ScientificFunction applies fn to the displayed number and records the
// result immediately. A pending binary operation is left in place.
func (e *Engine) ScientificFunction(fn Function) error {
	if !fn.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, fn)
	}
	e.operatorPressed = false

	value, label := fn.Evaluate(ParseNumber(e.state.Display))
	result := FormatNumber(value)
	e.recorder.Record(label, result)

	e.state.Display = result
	e.state.AwaitingNewInput = true
	return nil
}

func isDigitToken(token string) bool {
	if len(token) != 1 {
		return false
	}
	c := token[0]
	return c == '.' || ('0' <= c && c <= '9')
}
