package alerting

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"btc-price-monitor/internal/evaluator"
)

func TestConsoleNotifierPrintsMessage(t *testing.T) {
	var out bytes.Buffer
	notifier := NewConsoleNotifier(&out, testLogger())

	note := Notification{
		At:        time.Now(),
		Price:     decimal.NewFromFloat(28500),
		Threshold: decimal.NewFromFloat(29000),
		Direction: evaluator.Below,
		Message:   "Alert: Bitcoin price has fallen below the threshold $29000.00",
	}
	if err := notifier.Notify(context.Background(), note); err != nil {
		t.Fatalf("Notify should succeed: %v", err)
	}

	if out.String() != "Alert: Bitcoin price has fallen below the threshold $29000.00\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestConsoleNotifierRendersFromDirection(t *testing.T) {
	var out bytes.Buffer
	notifier := NewConsoleNotifier(&out, testLogger())

	note := Notification{
		Price:     decimal.NewFromFloat(31500),
		Threshold: decimal.NewFromFloat(31000),
		Direction: evaluator.Above,
	}
	if err := notifier.Notify(context.Background(), note); err != nil {
		t.Fatalf("Notify should succeed: %v", err)
	}

	if out.String() != "Alert: Bitcoin price has risen above the threshold $31000.00\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestConsoleNotifierCancelled(t *testing.T) {
	var out bytes.Buffer
	notifier := NewConsoleNotifier(&out, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := notifier.Notify(ctx, Notification{Message: "x"}); err == nil {
		t.Fatal("cancelled context should fail")
	}
	if out.Len() != 0 {
		t.Fatal("nothing should be printed after cancellation")
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
