// Package solver answers free-text math questions through a hosted
// language model. Failures never surface as errors: callers always get a
// displayable string back.
package solver

import "context"

// Messages shown in place of an answer.
const (
	NoResultMessage = "결과를 가져올 수 없습니다."
	FailureMessage  = "오류가 발생했습니다."
)

// Solver turns a natural-language query into an answer string.
type Solver interface {
	Solve(ctx context.Context, query string) string
}

// Func adapts a function to Solver.
type Func func(ctx context.Context, query string) string

func (f Func) Solve(ctx context.Context, query string) string { return f(ctx, query) }

// Unavailable answers every query with FailureMessage. It stands in when
// no model credentials are configured.
type Unavailable struct{}

func (Unavailable) Solve(context.Context, string) string { return FailureMessage }
