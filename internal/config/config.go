// Package config loads and validates pttgrab configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// maxWorkersCap bounds the aggregate request rate against the target site.
const maxWorkersCap = 16

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CrawlerConfig governs the fetch/retry/aggregate engine. It is immutable
// for the duration of one crawl run.
type CrawlerConfig struct {
	DelayBetweenRequests time.Duration `mapstructure:"delay_between_requests"`
	DelayBetweenPages    time.Duration `mapstructure:"delay_between_pages"`
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxRetries           int           `mapstructure:"max_retries"`
	MaxWorkers           int           `mapstructure:"max_workers"`
	OutputDir            string        `mapstructure:"output_dir"`
	UserAgent            string        `mapstructure:"user_agent"`
	HostRPS              float64       `mapstructure:"host_rps"`
	RetryBackoffBase     time.Duration `mapstructure:"retry_backoff_base"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig controls the optional observability HTTP server.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PTTGRAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.delay_between_requests", "100ms")
	v.SetDefault("crawler.delay_between_pages", "500ms")
	v.SetDefault("crawler.timeout", "10s")
	v.SetDefault("crawler.max_retries", 3)
	v.SetDefault("crawler.max_workers", 4)
	v.SetDefault("crawler.output_dir", "./crawled_data")
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("crawler.host_rps", 4.0)
	v.SetDefault("crawler.retry_backoff_base", "1s")
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9090")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.DelayBetweenRequests <= 0 {
		return fmt.Errorf("crawler.delay_between_requests must be > 0")
	}
	if c.Crawler.DelayBetweenPages <= 0 {
		return fmt.Errorf("crawler.delay_between_pages must be > 0")
	}
	if c.Crawler.Timeout <= 0 {
		return fmt.Errorf("crawler.timeout must be > 0")
	}
	if c.Crawler.MaxRetries <= 0 {
		return fmt.Errorf("crawler.max_retries must be > 0")
	}
	if c.Crawler.MaxWorkers <= 0 {
		return fmt.Errorf("crawler.max_workers must be > 0")
	}
	if c.Crawler.MaxWorkers > maxWorkersCap {
		return fmt.Errorf("crawler.max_workers must be <= %d", maxWorkersCap)
	}
	if c.Crawler.OutputDir == "" {
		return fmt.Errorf("crawler.output_dir must be set")
	}
	if c.Crawler.UserAgent == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if c.Crawler.HostRPS < 0 {
		return fmt.Errorf("crawler.host_rps must be >= 0")
	}
	if c.Crawler.RetryBackoffBase <= 0 {
		return fmt.Errorf("crawler.retry_backoff_base must be > 0")
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr must be set when metrics are enabled")
	}
	return nil
}
