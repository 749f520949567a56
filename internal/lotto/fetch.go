package lotto

import (
	"context"
	"errors"
	"fmt"

	"lottoq/internal/sched"
)

// Fetcher returns a scheduler handler that fetches the game number passed as
// the task's args.
func Fetcher(c *Client) sched.Handler {
	return func(ctx context.Context, _ *sched.Scheduler, args any) (any, error) {
		n, ok := args.(int)
		if !ok {
			return nil, fmt.Errorf("fetch: args must be a game number, got %T", args)
		}
		g, err := c.GameResult(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("fetch game %d: %w", n, err)
		}
		return g, nil
	}
}

// FetchRange fetches games from..to (inclusive) through a FIFO scheduler so
// results arrive in game order. It returns the games fetched before the first
// failure together with every failure, joined.
func FetchRange(ctx context.Context, c *Client, cfg sched.Config, from, to int, opts ...sched.Option) ([]GameResult, error) {
	if from > to {
		return nil, nil
	}
	cfg.Mode = sched.ModeFifo
	opts = append([]sched.Option{sched.WithContext(ctx)}, opts...)
	s, err := sched.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	var (
		games []GameResult
		errs  []error
	)
	// notifications are delivered one at a time, so no locking is needed
	s.OnData(func(v any) {
		if len(errs) == 0 {
			games = append(games, v.(GameResult))
		}
	}).OnError(func(err error) {
		errs = append(errs, err)
	}).Start()

	for n := from; n <= to; n++ {
		s.Enqueue(sched.NewTask(Fetcher(c), n))
	}
	s.Close()

	if err := s.Wait(ctx); err != nil {
		return nil, err
	}
	return games, errors.Join(errs...)
}
