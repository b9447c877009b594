package transaction

import "context"

// Runner executes fn as one unit of work. Repositories called with the ctx
// handed to fn take part in the same transaction. Any error returned by fn
// rolls the work back.
type Runner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f RunnerFunc) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}
