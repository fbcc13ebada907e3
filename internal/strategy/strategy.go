package strategy

import "context"

// Strategy evaluates one configured instance against its portfolio
// context and returns advice. Implementations must be read-only with
// respect to the store; persistence is the executor's job.
type Strategy interface {
	Evaluate(ctx context.Context, sc *Context) ([]PlannedAction, error)
}

// Func adapts a plain function to Strategy.
type Func func(ctx context.Context, sc *Context) ([]PlannedAction, error)

func (f Func) Evaluate(ctx context.Context, sc *Context) ([]PlannedAction, error) {
	return f(ctx, sc)
}
