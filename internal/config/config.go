package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"rmfast/internal/fsops"
)

type RetryCfg struct {
	Attempts  int `yaml:"attempts" json:"attempts"`
	BackoffMS int `yaml:"backoff_ms" json:"backoff_ms"`
}

type MetricsCfg struct {
	Port int `yaml:"port" json:"port"` // 0 disables the /metrics server
}

type Config struct {
	Threads     int        `yaml:"threads" json:"threads"` // 0 = detected core count
	Protected   []string   `yaml:"protected" json:"protected"`
	Retry       RetryCfg   `yaml:"retry" json:"retry"`
	JournalPath string     `yaml:"journal_path" json:"journal_path"` // empty disables the journal
	Metrics     MetricsCfg `yaml:"metrics" json:"metrics"`
	LogLevel    string     `yaml:"log_level" json:"log_level"`
}

var (
	errNegativeThreads = errors.New("threads cannot be negative")
	errInvalidPath     = errors.New("protected path must be absolute")
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Threads < 0 {
		return errNegativeThreads
	}
	for i, p := range c.Protected {
		cp := filepath.Clean(p)
		if !filepath.IsAbs(cp) {
			return fmt.Errorf("%w: %s", errInvalidPath, p)
		}
		c.Protected[i] = cp
	}
	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = fsops.DefaultRetry.Attempts
	}
	if c.Retry.BackoffMS <= 0 {
		c.Retry.BackoffMS = int(fsops.DefaultRetry.Backoff / time.Millisecond)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// RetryPolicy converts the config values into the backend's policy type.
func (c *Config) RetryPolicy() fsops.RetryPolicy {
	return fsops.RetryPolicy{
		Attempts: c.Retry.Attempts,
		Backoff:  time.Duration(c.Retry.BackoffMS) * time.Millisecond,
	}
}

func (c *Config) MetricsAddress() string {
	return fmt.Sprintf(":%d", c.Metrics.Port)
}
