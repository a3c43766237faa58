package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config describes logger runtime configuration.
type Config struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
	Caller     bool   `mapstructure:"caller"`
	File       string `mapstructure:"file"`
	Stdout     bool   `mapstructure:"stdout"`
}

// Open creates the log sink described by cfg and a logger writing to it.
// The returned closer flushes and closes the log file.
func Open(cfg Config) (zerolog.Logger, io.Closer, error) {
	var sinks []io.Writer
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		sinks = append(sinks, formatWriter(cfg, file, true))
		closer = syncCloser{file}
	}
	if cfg.Stdout || len(sinks) == 0 {
		sinks = append(sinks, formatWriter(cfg, os.Stdout, false))
	}

	var out io.Writer = sinks[0]
	if len(sinks) > 1 {
		out = zerolog.MultiLevelWriter(sinks...)
	}
	return NewLogger(cfg, out), closer, nil
}

// NewLogger constructs a zerolog logger writing already-formatted events to w.
func NewLogger(cfg Config, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && cfg.Level != "" {
		level = parsed
	}

	logger := zerolog.New(w).Level(level)
	builder := logger.With().Timestamp()
	if cfg.Caller {
		builder = builder.Caller()
	}

	return builder.Logger()
}

func formatWriter(cfg Config, out io.Writer, file bool) io.Writer {
	if strings.EqualFold(cfg.Format, "json") {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    file,
		TimeFormat: timeFormat(cfg),
	}
}

func timeFormat(cfg Config) string {
	if cfg.TimeFormat != "" {
		return cfg.TimeFormat
	}
	return time.RFC3339
}

type syncCloser struct {
	file *os.File
}

func (s syncCloser) Close() error {
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("sync log file: %w", err)
	}
	return s.file.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
