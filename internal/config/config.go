// Package config loads the tool configuration from YAML. Command-line flags
// take precedence over file values; the file only sets defaults for settings
// a user would rather not repeat per invocation.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "250ms" or "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("invalid duration value")
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// Config is the application configuration.
type Config struct {
	Solver SolverConfig `yaml:"solver"`
	Device DeviceConfig `yaml:"device"`
	Log    LogConfig    `yaml:"log"`
}

// SolverConfig tunes the worker farm.
type SolverConfig struct {
	Workers      int      `yaml:"workers"`
	TickInterval Duration `yaml:"tick_interval"`
	MissBatch    int      `yaml:"miss_batch"`
	MetricsAddr  string   `yaml:"metrics_addr"`
}

// DeviceConfig locates the lock device.
type DeviceConfig struct {
	Address      string   `yaml:"address"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// LogConfig shapes the zap logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Encoding   string `yaml:"encoding"` // console or json
	OutputPath string `yaml:"output_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	workers := runtime.NumCPU()
	if workers > 255 {
		workers = 255
	}
	return &Config{
		Solver: SolverConfig{
			Workers:      workers,
			TickInterval: Duration(250 * time.Millisecond),
			MissBatch:    4096,
		},
		Device: DeviceConfig{
			Address:      "127.0.0.1:4444",
			DialTimeout:  Duration(10 * time.Second),
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(10 * time.Second),
		},
		Log: LogConfig{
			Level:      "info",
			Encoding:   "console",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Load reads path on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the solver could not honor.
func (c *Config) Validate() error {
	if c.Solver.Workers < 1 || c.Solver.Workers > 255 {
		return fmt.Errorf("solver.workers must be in 1..255, got %d", c.Solver.Workers)
	}
	if c.Solver.TickInterval <= 0 {
		return fmt.Errorf("solver.tick_interval must be positive, got %s", c.Solver.TickInterval)
	}
	if c.Solver.MissBatch < 1 {
		return fmt.Errorf("solver.miss_batch must be at least 1, got %d", c.Solver.MissBatch)
	}
	if c.Device.Address == "" {
		return fmt.Errorf("device.address must not be empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.Log.Encoding != "console" && c.Log.Encoding != "json" {
		return fmt.Errorf("log.encoding must be console or json, got %q", c.Log.Encoding)
	}
	return nil
}
