package alerting

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"btc-price-monitor/internal/evaluator"
)

// Notification carries one threshold crossing.
type Notification struct {
	At        time.Time
	Price     decimal.Decimal
	Threshold decimal.Decimal
	Direction evaluator.Classification
	Message   string
}

// Notifier delivers alerts to the user.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// ConsoleNotifier prints the alert line verbatim to an output stream.
type ConsoleNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	logger zerolog.Logger
}

// NewConsoleNotifier writes alerts to out, or stdout when out is nil.
func NewConsoleNotifier(out io.Writer, logger zerolog.Logger) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{
		out:    out,
		logger: logger.With().Str("component", "alert_console").Logger(),
	}
}

// Notify prints the alert message followed by a newline.
func (n *ConsoleNotifier) Notify(ctx context.Context, note Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := fmt.Fprintln(n.out, renderMessage(note)); err != nil {
		return fmt.Errorf("write console alert: %w", err)
	}

	n.logger.Debug().
		Str("direction", string(note.Direction)).
		Str("threshold", note.Threshold.StringFixed(2)).
		Msg("alert printed")
	return nil
}

func renderMessage(note Notification) string {
	if note.Message != "" {
		return note.Message
	}
	bounds := evaluator.Bounds{Lower: note.Threshold, Upper: note.Threshold}
	if msg, ok := evaluator.AlertMessage(note.Direction, bounds); ok {
		return msg
	}
	return fmt.Sprintf("Alert: Bitcoin price is $%s", note.Price.StringFixed(2))
}

var _ Notifier = (*ConsoleNotifier)(nil)
