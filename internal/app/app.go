package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"btc-price-monitor/internal/alerting"
	"btc-price-monitor/internal/config"
	"btc-price-monitor/internal/fetcher"
	"btc-price-monitor/internal/scheduler"
	"btc-price-monitor/internal/service"
	"btc-price-monitor/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

func (a *App) newFetcher(logger zerolog.Logger) *fetcher.CoinDesk {
	return fetcher.NewCoinDesk(fetcher.CoinDeskOptions{
		URL:               a.Config.Feed.URL,
		Timeout:           a.Config.Feed.RequestTimeout,
		RateLimitCooldown: a.Config.Feed.RateLimitCooldown,
		UserAgent:         a.Config.Feed.UserAgent,
	}, logger)
}

func (a *App) newNotifier(logger zerolog.Logger) alerting.Notifier {
	return alerting.NewConsoleNotifier(a.Out, logger)
}

func (a *App) serviceOptions(endpoint string) service.Options {
	return service.Options{
		Bounds:   a.Config.Bounds(),
		Endpoint: endpoint,
	}
}

// Run executes the long-running monitoring loop until SIGINT/SIGTERM or ctx cancellation.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := a.Logger.With().Str("run_id", uuid.NewString()).Logger()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Monitor.Interval,
		AlignToStart: a.Config.Monitor.AlignToInterval,
		StartupDelay: a.Config.Monitor.StartupDelay,
	}, logger)

	feed := a.newFetcher(logger)
	history := service.NewHistory(a.Config.Report.MaxSamples)
	svc := service.New(a.serviceOptions(feed.Endpoint()), sched, feed, a.newNotifier(logger), history, logger)

	logger.Info().
		Float64("lower", a.Config.Thresholds.Lower).
		Float64("upper", a.Config.Thresholds.Upper).
		Dur("interval", a.Config.Monitor.Interval).
		Str("endpoint", feed.Endpoint()).
		Str("version", version.String()).
		Msg("starting bitcoin price monitor")

	err := svc.Run(ctx)

	summary := history.Summary()
	logger.Info().
		Int("checks", summary.Checks).
		Int("failures", summary.Failures).
		Int("alerts", summary.Alerts).
		Str("min", summary.Min.StringFixed(2)).
		Str("max", summary.Max.StringFixed(2)).
		Msg("session summary")

	if reportErr := a.WriteReport(history.Observations()); reportErr != nil {
		logger.Error().Err(reportErr).Msg("failed to write session report")
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("monitor terminated with error")
		return err
	}

	logger.Info().Msg("bitcoin price monitor stopped")
	return nil
}

// Check performs a single fetch and evaluation cycle and reports the outcome on Out.
func (a *App) Check(ctx context.Context) error {
	feed := a.newFetcher(a.Logger)
	svc := service.New(a.serviceOptions(feed.Endpoint()), nil, feed, a.newNotifier(a.Logger), nil, a.Logger)

	obs := svc.Check(ctx, time.Now().UTC())
	if !obs.OK() {
		return fmt.Errorf("check bitcoin price: %w", obs.Err)
	}

	fmt.Fprintf(a.Out, "Bitcoin price: $%s (%s)\n", obs.Price.StringFixed(2), obs.Classification)
	return nil
}
