package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"btc-price-monitor/internal/alerting"
	"btc-price-monitor/internal/evaluator"
	"btc-price-monitor/internal/fetcher"
	"btc-price-monitor/internal/scheduler"
)

// Options carry the static parameters of the monitoring cycle.
type Options struct {
	Bounds   evaluator.Bounds
	Endpoint string
}

// Service orchestrates fetching, evaluation, and alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	fetcher   fetcher.PriceFetcher
	notifier  alerting.Notifier
	history   *History
	logger    zerolog.Logger

	bounds   evaluator.Bounds
	endpoint string
}

// New constructs the monitoring service. sched, notifier and history may be nil.
func New(opts Options, sched *scheduler.Scheduler, fetch fetcher.PriceFetcher, notifier alerting.Notifier, history *History, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		fetcher:   fetch,
		notifier:  notifier,
		history:   history,
		logger:    logger.With().Str("component", "service").Logger(),
		bounds:    opts.Bounds,
		endpoint:  opts.Endpoint,
	}
}

// Run begins the polling loop and returns when ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessTick)
}

// ProcessTick runs one cycle. Fetch failures are logged and skipped, never returned.
func (s *Service) ProcessTick(ctx context.Context, at time.Time) error {
	s.Check(ctx, at)
	return nil
}

// Check fetches the price once, classifies it and performs the alert side effects.
func (s *Service) Check(ctx context.Context, at time.Time) Observation {
	obs := Observation{At: at}

	price, err := s.fetcher.FetchPrice(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch bitcoin price; retrying in the next interval")
		obs.Err = err
		s.history.Add(obs)
		return obs
	}

	obs.Price = price
	s.logger.Info().
		Time("at", at).
		Str("endpoint", s.endpoint).
		Str("price", price.StringFixed(2)).
		Msgf("current bitcoin price: $%s", price.StringFixed(2))

	obs.Classification = evaluator.Classify(price, s.bounds)
	msg, alert := evaluator.AlertMessage(obs.Classification, s.bounds)
	if !alert {
		s.logger.Info().
			Str("classification", string(obs.Classification)).
			Msgf("bitcoin price is within thresholds: $%s", price.StringFixed(2))
		s.history.Add(obs)
		return obs
	}

	obs.Alerted = true
	s.logger.Info().
		Str("classification", string(obs.Classification)).
		Str("threshold", s.bounds.Threshold(obs.Classification).StringFixed(2)).
		Bool("alert", true).
		Msg(msg)

	if s.notifier != nil {
		note := alerting.Notification{
			At:        at,
			Price:     price,
			Threshold: s.bounds.Threshold(obs.Classification),
			Direction: obs.Classification,
			Message:   msg,
		}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Msg("failed to dispatch alert")
		}
	}

	s.history.Add(obs)
	return obs
}
