package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"btc-price-monitor/internal/config"
	"btc-price-monitor/internal/evaluator"
	"btc-price-monitor/internal/fetcher"
	"btc-price-monitor/internal/service"
)

func testConfig(feedURL string) *config.Config {
	return &config.Config{
		Feed: config.FeedConfig{
			URL:               feedURL,
			RequestTimeout:    time.Second,
			RateLimitCooldown: time.Millisecond,
		},
		Thresholds: config.ThresholdConfig{Lower: 29000.0, Upper: 31000.0},
		Monitor:    config.MonitorConfig{Interval: 5 * time.Millisecond},
		Report:     config.ReportConfig{MaxSamples: 100},
	}
}

func feedServer(t *testing.T, rate string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bpi":{"USD":{"rate_float":` + rate + `}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(cfg *config.Config) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	a := NewApp(cfg, zerolog.Nop())
	a.Out = &out
	return a, &out
}

func TestCheckBelowPrintsAlert(t *testing.T) {
	srv := feedServer(t, "28500.0")
	a, out := newTestApp(testConfig(srv.URL))

	if err := a.Check(context.Background()); err != nil {
		t.Fatalf("Check should succeed: %v", err)
	}

	want := "Alert: Bitcoin price has fallen below the threshold $29000.00\nBitcoin price: $28500.00 (below)\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestCheckWithinDoesNotAlert(t *testing.T) {
	srv := feedServer(t, "30000.0")
	a, out := newTestApp(testConfig(srv.URL))

	if err := a.Check(context.Background()); err != nil {
		t.Fatalf("Check should succeed: %v", err)
	}
	if strings.Contains(out.String(), "Alert:") {
		t.Fatalf("within price must not alert: %q", out.String())
	}
	if !strings.Contains(out.String(), "(within)") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestCheckMalformedReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bpi":{}}`))
	}))
	defer srv.Close()

	a, out := newTestApp(testConfig(srv.URL))
	err := a.Check(context.Background())
	if !errors.Is(err, fetcher.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be printed, got %q", out.String())
	}
}

func TestSimulateAlert(t *testing.T) {
	a, out := newTestApp(testConfig("http://unused"))

	if err := a.SimulateAlert(context.Background(), decimal.NewFromFloat(31500.0)); err != nil {
		t.Fatalf("SimulateAlert: %v", err)
	}
	if out.String() != "Alert: Bitcoin price has risen above the threshold $31000.00\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := a.SimulateAlert(context.Background(), decimal.NewFromFloat(30000.0)); err != nil {
		t.Fatalf("SimulateAlert: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("within price must not print, got %q", out.String())
	}
}

func TestRunPollsAndWritesReport(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		switch n % 3 {
		case 1:
			_, _ = w.Write([]byte(`{"bpi":{"USD":{"rate_float":28500.0}}}`))
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(`{"bpi":{"USD":{"rate_float":30000.0}}}`))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig(srv.URL)
	cfg.Report.CSVPath = filepath.Join(dir, "session.csv")
	a, out := newTestApp(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run should stop cleanly on deadline: %v", err)
	}
	if hits.Load() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", hits.Load())
	}
	if !strings.Contains(out.String(), "Alert: Bitcoin price has fallen below the threshold $29000.00") {
		t.Fatalf("expected alert output, got %q", out.String())
	}

	f, err := os.Open(cfg.Report.CSVPath)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(rows) < 4 {
		t.Fatalf("expected header plus at least 3 rows, got %d", len(rows))
	}
	if rows[1][1] != "28500.00" || rows[1][2] != "below" || rows[1][3] != "true" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[2][1] != "" || rows[2][4] == "" {
		t.Fatalf("rate limited row should carry an error, got %v", rows[2])
	}
}

func TestWriteReportPNG(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig("http://unused")
	cfg.Report.PNGPath = filepath.Join(dir, "charts", "session.png")
	a, _ := newTestApp(cfg)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	observations := []service.Observation{
		{At: base, Price: decimal.NewFromInt(28500), Classification: evaluator.Below, Alerted: true},
		{At: base.Add(30 * time.Second), Err: fetcher.ErrRateLimited},
		{At: base.Add(time.Minute), Price: decimal.NewFromInt(30000), Classification: evaluator.Within},
		{At: base.Add(90 * time.Second), Price: decimal.NewFromInt(31500), Classification: evaluator.Above, Alerted: true},
	}

	if err := a.WriteReport(observations); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	data, err := os.ReadFile(cfg.Report.PNGPath)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("output is not a png")
	}
}

func TestWriteReportDisabled(t *testing.T) {
	a, _ := newTestApp(testConfig("http://unused"))
	if err := a.WriteReport([]service.Observation{{Price: decimal.NewFromInt(1)}}); err != nil {
		t.Fatalf("disabled report should be a no-op: %v", err)
	}
}

func TestDownsampleObservations(t *testing.T) {
	obs := make([]service.Observation, 10)
	for i := range obs {
		obs[i].Price = decimal.NewFromInt(int64(i))
	}

	got := downsampleObservations(obs, 4)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if !got[0].Price.Equal(decimal.Zero) || !got[3].Price.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("downsample should keep endpoints, got %s..%s", got[0].Price, got[3].Price)
	}
	if len(downsampleObservations(obs, 20)) != 10 {
		t.Fatal("short input should be returned unchanged")
	}
}
