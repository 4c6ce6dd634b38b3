package mcptool

import (
	"context"
)

// Runner schedules one remote tool invocation and blocks the caller until
// the invocation produces a result. The strategy is selected once, at
// adapter construction time.
type Runner interface {
	Run(ctx context.Context, fn func(context.Context) (string, error)) (string, error)
}

// CallerRunner drives the invocation on the calling goroutine.
type CallerRunner struct{}

var _ Runner = CallerRunner{}

func (CallerRunner) Run(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	return fn(ctx)
}

// DetachedRunner drives each invocation on its own goroutine with
// run-to-completion semantics: when the caller gives up waiting, the
// in-flight invocation still finishes on its own and the result is
// discarded. The result channel is buffered, so an abandoned invocation
// does not leak its goroutine.
type DetachedRunner struct{}

var _ Runner = DetachedRunner{}

func (DetachedRunner) Run(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	type result struct {
		out string
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		// the invocation carries its own timeout; the caller abandoning
		// the wait must not cancel it mid-flight
		out, err := fn(context.WithoutCancel(ctx))
		resCh <- result{out: out, err: err}
	}()

	select {
	case res := <-resCh:
		return res.out, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
