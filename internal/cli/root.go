package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"btc-price-monitor/internal/app"
	"btc-price-monitor/internal/config"
	"btc-price-monitor/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	lower     float64
	upper     float64
	interval  time.Duration
	appHandle *app.App
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "btcmonitor",
	Short: "Monitor the Bitcoin price against lower and upper thresholds",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if err := applyOverrides(cmd, cfg); err != nil {
			return err
		}

		logger, closer, err := logging.Open(cfg.Logging)
		if err != nil {
			return err
		}
		logCloser = closer

		appHandle = app.NewApp(cfg, logger)
		appHandle.Out = cmd.OutOrStdout()
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if logCloser != nil {
		if closeErr := logCloser.Close(); closeErr != nil {
			fmt.Fprintln(os.Stderr, closeErr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")
	rootCmd.PersistentFlags().Float64Var(&lower, "lower", 0, "Lower price threshold in USD (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&upper, "upper", 0, "Upper price threshold in USD (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&interval, "interval", 0, "Polling interval (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(versionCmd)
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("lower") {
		cfg.Thresholds.Lower = lower
	}
	if flags.Changed("upper") {
		cfg.Thresholds.Upper = upper
	}
	if flags.Changed("interval") {
		cfg.Monitor.Interval = interval
	}
	return cfg.Validate()
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
