package engine

import (
	"fmt"
	"math"
)

// Function is a unary scientific function.
type Function string

const (
	FuncSin  Function = "sin"
	FuncCos  Function = "cos"
	FuncTan  Function = "tan"
	FuncSqrt Function = "sqrt"
	FuncLog  Function = "log" // base 10
	FuncExp  Function = "exp"
	FuncPi   Function = "pi"
)

var functionAliases = map[string]Function{
	"sin":   FuncSin,
	"cos":   FuncCos,
	"tan":   FuncTan,
	"sqrt":  FuncSqrt,
	"√":     FuncSqrt,
	"log":   FuncLog,
	"log10": FuncLog,
	"exp":   FuncExp,
	"pi":    FuncPi,
	"π":     FuncPi,
}

// ParseFunction accepts a function name or its keypad glyph.
func ParseFunction(s string) (Function, error) {
	fn, ok := functionAliases[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFunction, s)
	}
	return fn, nil
}

func (fn Function) valid() bool {
	switch fn {
	case FuncSin, FuncCos, FuncTan, FuncSqrt, FuncLog, FuncExp, FuncPi:
		return true
	}
	return false
}

// Evaluate returns fn(x) with its history label. The label renders x
// with FormatNumber, e.g. "sin(0.5)" or "√(2)".
func (fn Function) Evaluate(x float64) (result float64, label string) {
	arg := FormatNumber(x)

	switch fn {
	case FuncSin:
		return math.Sin(x), "sin(" + arg + ")"
	case FuncCos:
		return math.Cos(x), "cos(" + arg + ")"
	case FuncTan:
		return math.Tan(x), "tan(" + arg + ")"
	case FuncSqrt:
		return math.Sqrt(x), "√(" + arg + ")"
	case FuncLog:
		return math.Log10(x), "log(" + arg + ")"
	case FuncExp:
		return math.Exp(x), "exp(" + arg + ")"
	case FuncPi:
		return math.Pi, "π"
	default:
		return 0, ""
	}
}
