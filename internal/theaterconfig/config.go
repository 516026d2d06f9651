// Package theaterconfig loads and validates configuration for a
// theater process: scheduler budgets, logging, metrics, and tracing.
package theaterconfig

import (
	"fmt"
	"time"
)

// Config is the top-level configuration for a theater process.
type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Log       LogConfig       `mapstructure:"log" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	API       APIConfig       `mapstructure:"api"`
}

// SchedulerConfig maps directly onto a theater.Budget.
type SchedulerConfig struct {
	ImmediateBudget time.Duration `mapstructure:"immediate_budget" validate:"required"`
	FastBudget      time.Duration `mapstructure:"fast_budget" validate:"required"`
	NormalBudget    time.Duration `mapstructure:"normal_budget" validate:"required"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds observability settings for the /metrics
// endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535"`
	Path    string `mapstructure:"path"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	Sampler    string  `mapstructure:"sampler" validate:"omitempty,oneof=always_on always_off ratio"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// APIConfig holds the debug/observability HTTP server settings.
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535"`
}

// DefaultConfig returns a Config matching theater's own built-in
// defaults (DefaultBudget, info/json logging, metrics and tracing
// off).
func DefaultConfig() Config {
	return Config{
		Scheduler: SchedulerConfig{
			ImmediateBudget: 4 * time.Millisecond,
			FastBudget:      6 * time.Millisecond,
			NormalBudget:    10 * time.Millisecond,
		},
		Log: LogConfig{Level: "info", Format: "json", Output: "stdout"},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Sampler:    "ratio",
			SampleRate: 0.1,
		},
		API: APIConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    8080,
		},
	}
}

// Validate runs struct-tag validation over c.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("theaterconfig: validation failed: %w", err)
	}
	return nil
}
