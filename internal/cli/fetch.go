package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lottoq/internal/history"
	"lottoq/internal/lotto"
	"lottoq/internal/sched"
)

func newFetchCmd() *cobra.Command {
	var (
		concurrency int
		historyPath string
		baseURL     string
		tracePath   string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch missing draws into the history file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("concurrency") {
				cfg.Scheduler.Concurrency = concurrency
			}
			if cmd.Flags().Changed("history") {
				cfg.Fetch.HistoryPath = historyPath
			}
			if cmd.Flags().Changed("base-url") {
				cfg.Fetch.BaseURL = baseURL
			}
			if cmd.Flags().Changed("trace") {
				cfg.TraceCSV = tracePath
			}

			ctx := cmd.Context()
			log := logger.With("run_id", uuid.New().String())
			out := cmd.OutOrStdout()
			client := lotto.NewClient(cfg.Fetch.BaseURL, cfg.Fetch.Timeout(), log)

			latest, err := client.Latest(ctx)
			if err != nil {
				return fmt.Errorf("fetch latest draw: %w", err)
			}
			log.Info("latest draw", "game", latest.GameNumber, "date", latest.GameDate)

			games, err := history.Load(cfg.Fetch.HistoryPath)
			if err != nil {
				return err
			}
			last := history.LastGame(games)
			if last >= latest.GameNumber {
				fmt.Fprintf(out, "History up to date: %d games, last game %d\n", len(games), last)
				return nil
			}
			log.Info("history not up to date", "last", last, "latest", latest.GameNumber)

			opts := []sched.Option{sched.WithLogger(log)}
			if cfg.TraceCSV != "" {
				trace, err := sched.NewCSVTrace(cfg.TraceCSV)
				if err != nil {
					return fmt.Errorf("open trace: %w", err)
				}
				defer trace.Close()
				opts = append(opts, sched.WithTrace(trace))
			}

			updates, fetchErr := lotto.FetchRange(ctx, client, cfg.Scheduler, last+1, latest.GameNumber-1, opts...)
			if fetchErr == nil {
				updates = append(updates, latest)
			}

			merged := history.Merge(games, updates)
			if err := history.Save(cfg.Fetch.HistoryPath, merged); err != nil {
				return err
			}
			fmt.Fprintf(out, "Fetched %d games: %d games, last game %d\n", len(updates), len(merged), history.LastGame(merged))

			if fetchErr != nil {
				return fmt.Errorf("fetch games: %w", fetchErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 20, "Max concurrent requests")
	cmd.Flags().StringVar(&historyPath, "history", "history.json", "History file")
	cmd.Flags().StringVar(&baseURL, "base-url", lotto.DefaultBaseURL, "Draw result page URL")
	cmd.Flags().StringVar(&tracePath, "trace", "", "Write scheduler events to this CSV file")

	return cmd
}
