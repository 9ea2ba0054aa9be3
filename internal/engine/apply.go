package engine

import (
	"fmt"
	"math"
)

// Operation is a pending binary operator, written as its keypad symbol.
type Operation string

const (
	OpNone     Operation = ""
	OpAdd      Operation = "+"
	OpSubtract Operation = "-"
	OpMultiply Operation = "*"
	OpDivide   Operation = "/"
	OpModulo   Operation = "%"
	OpPower    Operation = "^"
)

var operationAliases = map[string]Operation{
	"+": OpAdd,
	"-": OpSubtract,
	"−": OpSubtract,
	"*": OpMultiply,
	"×": OpMultiply,
	"/": OpDivide,
	"÷": OpDivide,
	"%": OpModulo,
	"^": OpPower,

	"add":      OpAdd,
	"subtract": OpSubtract,
	"multiply": OpMultiply,
	"divide":   OpDivide,
	"modulo":   OpModulo,
	"power":    OpPower,
}

// ParseOperation accepts an operator symbol, its keypad glyph, or its name.
func ParseOperation(s string) (Operation, error) {
	op, ok := operationAliases[s]
	if !ok {
		return OpNone, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
	return op, nil
}

func (op Operation) String() string { return string(op) }

func (op Operation) valid() bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpModulo, OpPower:
		return true
	}
	return false
}

// Apply evaluates a op b. It is total: every input pair maps to a number.
// Division by zero yields 0 and an absent operator yields b.
func Apply(a, b float64, op Operation) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSubtract:
		return a - b
	case OpMultiply:
		return a * b
	case OpDivide:
		if b == 0 {
			return 0
		}
		return a / b
	case OpModulo:
		return math.Mod(a, b)
	case OpPower:
		return pow(a, b)
	default:
		return b
	}
}

// pow follows Math.pow where it differs from math.Pow:
// a NaN exponent and (±1)^±Inf are NaN.
func pow(a, b float64) float64 {
	if math.IsNaN(b) {
		return math.NaN()
	}
	if math.IsInf(b, 0) && math.Abs(a) == 1 {
		return math.NaN()
	}
	return math.Pow(a, b)
}
