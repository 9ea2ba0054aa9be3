package engine

import (
	"fmt"
	"strings"
)

// KeyKind groups keypad buttons by the transition they trigger.
type KeyKind int

const (
	KeyDigit KeyKind = iota + 1
	KeyOperator
	KeyEqual
	KeyClear
	KeyNegate
	KeyFunction
)

func (k KeyKind) String() string {
	switch k {
	case KeyDigit:
		return "digit"
	case KeyOperator:
		return "operator"
	case KeyEqual:
		return "equal"
	case KeyClear:
		return "clear"
	case KeyNegate:
		return "negate"
	case KeyFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Key is a parsed keypad button.
type Key struct {
	Kind     KeyKind
	Label    string
	Digit    string
	Op       Operation
	Function Function
}

// Scientific reports whether the key exists only on the scientific keypad.
func (k Key) Scientific() bool {
	return k.Kind == KeyFunction || (k.Kind == KeyOperator && k.Op == OpPower)
}

// ParseKey maps a button label to a Key. Labels are the keypad captions
// ("7", ".", "÷", "=", "AC", "+/-", "sin", "π") or their ASCII spellings.
func ParseKey(label string) (Key, error) {
	s := strings.TrimSpace(label)
	k := Key{Label: s}

	if isDigitToken(s) {
		k.Kind, k.Digit = KeyDigit, s
		return k, nil
	}

	switch strings.ToLower(s) {
	case "=", "equals", "enter":
		k.Kind = KeyEqual
		return k, nil
	case "ac", "c", "clear":
		k.Kind = KeyClear
		return k, nil
	case "+/-", "±", "neg", "negate":
		k.Kind = KeyNegate
		return k, nil
	}

	if op, err := ParseOperation(s); err == nil {
		k.Kind, k.Op = KeyOperator, op
		return k, nil
	}
	if fn, err := ParseFunction(strings.ToLower(s)); err == nil {
		k.Kind, k.Function = KeyFunction, fn
		return k, nil
	}

	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, label)
}

// Press dispatches k to the matching transition.
func (e *Engine) Press(k Key) error {
	switch k.Kind {
	case KeyDigit:
		return e.InputDigit(k.Digit)
	case KeyOperator:
		return e.InputOperator(k.Op)
	case KeyEqual:
		e.HandleEqual()
		return nil
	case KeyClear:
		e.HandleClear()
		return nil
	case KeyNegate:
		e.Negate()
		return nil
	case KeyFunction:
		return e.ScientificFunction(k.Function)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, k.Label)
	}
}
