package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lottoq/internal/job"
	"lottoq/internal/sched"
)

type demoResult struct {
	task  int
	delay time.Duration
}

func newDemoCmd() *cobra.Command {
	var (
		mode        string
		concurrency int
		fail        []int
	)

	cmd := &cobra.Command{
		Use:   "demo <delay>...",
		Short: "Run sleep tasks through the scheduler and print emission order",
		Long: "Each argument is a task delay (\"30ms\", \"1s\", or bare milliseconds). " +
			"In fifo mode outcomes print in submission order; in asap mode as tasks finish.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delays := make([]time.Duration, len(args))
			for i, a := range args {
				d, err := parseDelay(a)
				if err != nil {
					return err
				}
				delays[i] = d
			}

			scfg := cfg.Scheduler
			scfg.Name = "demo"
			if cmd.Flags().Changed("mode") {
				m, err := sched.ParseMode(mode)
				if err != nil {
					return err
				}
				scfg.Mode = m
			}
			if cmd.Flags().Changed("concurrency") {
				scfg.Concurrency = concurrency
			}

			s, err := sched.New(scfg, sched.WithLogger(logger), sched.WithContext(cmd.Context()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			start := time.Now()
			elapsed := func() int64 { return time.Since(start).Milliseconds() }
			s.OnData(func(v any) {
				r := v.(demoResult)
				fmt.Fprintf(out, "+%5dms  task %d  ok     (slept %s)\n", elapsed(), r.task, r.delay)
			}).OnError(func(err error) {
				fmt.Fprintf(out, "+%5dms  %v\n", elapsed(), err)
			}).Start()

			failing := make(map[int]bool, len(fail))
			for _, i := range fail {
				failing[i] = true
			}
			for i, d := range delays {
				n := i + 1
				h := job.Sleep(d, demoResult{task: n, delay: d})
				if failing[n] {
					h = job.Fail(d, fmt.Errorf("task %d  failed (slept %s)", n, d))
				}
				s.Enqueue(sched.NewTask(h, nil))
			}
			s.Close()

			if err := s.Wait(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "done: %d tasks, mode %s, concurrency %d\n", len(delays), scfg.Mode, scfg.Concurrency)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "fifo", "Emission mode (fifo, asap)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Max tasks in flight")
	cmd.Flags().IntSliceVar(&fail, "fail", nil, "1-based task numbers that fail instead of succeeding")

	return cmd
}

func parseDelay(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: %w", s, err)
	}
	return d, nil
}
