package job

import (
	"context"
	"fmt"
	"time"

	"lottoq/internal/sched"
)

// Sleep returns a handler that waits for d and then succeeds with value.
// It returns early with the context error if ctx ends first.
func Sleep(d time.Duration, value any) sched.Handler {
	return func(ctx context.Context, _ *sched.Scheduler, _ any) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
			return value, nil
		}
	}
}

// Fail returns a handler that waits for d and then fails with err.
func Fail(d time.Duration, err error) sched.Handler {
	return func(ctx context.Context, _ *sched.Scheduler, _ any) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
			return nil, err
		}
	}
}

// Timeout bounds h to d. The scheduler places no limit on handlers, so
// callers that need one wrap the handler themselves.
func Timeout(h sched.Handler, d time.Duration) sched.Handler {
	return func(ctx context.Context, s *sched.Scheduler, args any) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type result struct {
			value any
			err   error
		}
		ch := make(chan result, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					ch <- result{nil, fmt.Errorf("%w: %v", sched.ErrHandlerPanic, r)}
				}
			}()
			v, err := h(ctx, s, args)
			ch <- result{v, err}
		}()

		select {
		case r := <-ch:
			return r.value, r.err
		case <-ctx.Done():
			return nil, fmt.Errorf("handler timed out after %s: %w", d, ctx.Err())
		}
	}
}
