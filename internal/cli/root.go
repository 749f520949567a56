package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"lottoq/internal/config"
	"lottoq/internal/logging"
)

var (
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg    config.Config
	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the lottoq CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lottoq",
		Short: "lottoq — lottery draw history fetcher",
		Long:  "lottoq keeps a local history of lottery draws, fetching missing draws through a bounded-concurrency scheduler.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(flagConfig)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = flagLogLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Log.Format = flagLogFormat
			}
			if flagDebug {
				cfg.Log.Level = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "lottoq.yml", "Config file (missing file = defaults)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newFetchCmd(),
		newDemoCmd(),
	)

	return root
}
