package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"btc-price-monitor/internal/evaluator"
	"btc-price-monitor/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig       `mapstructure:"app"`
	Logging    logging.Config  `mapstructure:"logging"`
	Feed       FeedConfig      `mapstructure:"feed"`
	Thresholds ThresholdConfig `mapstructure:"thresholds"`
	Monitor    MonitorConfig   `mapstructure:"monitor"`
	Report     ReportConfig    `mapstructure:"report"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// FeedConfig covers the remote price endpoint.
type FeedConfig struct {
	URL               string        `mapstructure:"url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RateLimitCooldown time.Duration `mapstructure:"rate_limit_cooldown"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// ThresholdConfig holds the alert band in USD.
type ThresholdConfig struct {
	Lower float64 `mapstructure:"lower"`
	Upper float64 `mapstructure:"upper"`
}

// MonitorConfig governs polling cadence.
type MonitorConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToInterval bool          `mapstructure:"align_to_interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// ReportConfig controls the optional session report written on shutdown.
type ReportConfig struct {
	CSVPath    string `mapstructure:"csv_path"`
	PNGPath    string `mapstructure:"png_path"`
	MaxSamples int    `mapstructure:"max_samples"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BTCMONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "btcmonitor")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "bitcoin_price_monitor.log")
	v.SetDefault("logging.stdout", false)

	v.SetDefault("feed.url", "https://api.coindesk.com/v1/bpi/currentprice.json")
	v.SetDefault("feed.request_timeout", "10s")
	v.SetDefault("feed.rate_limit_cooldown", "60s")
	v.SetDefault("feed.user_agent", "btcmonitor/1.0")

	v.SetDefault("thresholds.lower", 29000.0)
	v.SetDefault("thresholds.upper", 31000.0)

	v.SetDefault("monitor.interval", "30s")
	v.SetDefault("monitor.align_to_interval", false)
	v.SetDefault("monitor.startup_delay", "0s")

	v.SetDefault("report.max_samples", 10000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Feed.URL) == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Feed.RequestTimeout <= 0 {
		return fmt.Errorf("feed.request_timeout must be greater than zero")
	}
	if c.Feed.RateLimitCooldown < 0 {
		return fmt.Errorf("feed.rate_limit_cooldown cannot be negative")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be greater than zero")
	}
	if c.Monitor.StartupDelay < 0 {
		return fmt.Errorf("monitor.startup_delay cannot be negative")
	}
	if c.Thresholds.Lower >= c.Thresholds.Upper {
		return fmt.Errorf("thresholds.lower (%.2f) must be below thresholds.upper (%.2f)", c.Thresholds.Lower, c.Thresholds.Upper)
	}
	if c.Report.MaxSamples <= 0 {
		return fmt.Errorf("report.max_samples must be greater than zero")
	}
	return nil
}

// Bounds converts the configured thresholds into evaluator bounds.
func (c *Config) Bounds() evaluator.Bounds {
	return evaluator.Bounds{
		Lower: decimal.NewFromFloat(c.Thresholds.Lower),
		Upper: decimal.NewFromFloat(c.Thresholds.Upper),
	}
}
