package app

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"btc-price-monitor/internal/evaluator"
	"btc-price-monitor/internal/service"
)

const maxChartPoints = 2000

// WriteReport renders the session observations as CSV and/or PNG when configured.
func (a *App) WriteReport(observations []service.Observation) error {
	cfg := a.Config.Report
	if cfg.CSVPath == "" && cfg.PNGPath == "" {
		return nil
	}
	if len(observations) == 0 {
		a.Logger.Info().Msg("no observations recorded; skipping session report")
		return nil
	}

	if cfg.CSVPath != "" {
		if err := writeObservationsCSV(cfg.CSVPath, observations); err != nil {
			return err
		}
		a.Logger.Info().Str("path", cfg.CSVPath).Int("rows", len(observations)).Msg("session csv written")
	}

	if cfg.PNGPath != "" {
		priced := pricedObservations(observations)
		if len(priced) < 2 {
			a.Logger.Info().Int("priced", len(priced)).Msg("not enough prices to chart; skipping png")
			return nil
		}
		if err := writeObservationsPNG(cfg.PNGPath, downsampleObservations(priced, maxChartPoints), a.Config.Bounds()); err != nil {
			return err
		}
		a.Logger.Info().Str("path", cfg.PNGPath).Msg("session chart written")
	}

	return nil
}

func pricedObservations(observations []service.Observation) []service.Observation {
	out := make([]service.Observation, 0, len(observations))
	for _, o := range observations {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

func downsampleObservations(observations []service.Observation, max int) []service.Observation {
	if max <= 1 || len(observations) <= max {
		return observations
	}

	result := make([]service.Observation, 0, max)
	step := float64(len(observations)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(observations) {
			idx = len(observations) - 1
		}
		result = append(result, observations[idx])
	}
	return result
}

func writeObservationsCSV(path string, observations []service.Observation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"time", "price_usd", "classification", "alerted", "error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, o := range observations {
		price, errMsg, alerted := "", "", "false"
		if o.OK() {
			price = o.Price.StringFixed(2)
		} else {
			errMsg = o.Err.Error()
		}
		if o.Alerted {
			alerted = "true"
		}
		record := []string{
			o.At.UTC().Format(time.RFC3339),
			price,
			string(o.Classification),
			alerted,
			errMsg,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeObservationsPNG(path string, observations []service.Observation, bounds evaluator.Bounds) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(observations))
	prices := make([]float64, len(observations))
	lower := make([]float64, len(observations))
	upper := make([]float64, len(observations))

	lo := bounds.Lower.InexactFloat64()
	hi := bounds.Upper.InexactFloat64()
	for i, o := range observations {
		x[i] = o.At
		prices[i] = o.Price.InexactFloat64()
		lower[i] = lo
		upper[i] = hi
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	dashed := chart.Style{StrokeDashArray: []float64{5.0, 5.0}}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "BTC (USD)",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Price",
				XValues: x,
				YValues: prices,
			},
			chart.TimeSeries{
				Name:    "Lower threshold",
				Style:   dashed,
				XValues: x,
				YValues: lower,
			},
			chart.TimeSeries{
				Name:    "Upper threshold",
				Style:   dashed,
				XValues: x,
				YValues: upper,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
