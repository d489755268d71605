// Package config defines service configuration and its loader.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Notifier modes.
const (
	NotifierLog  = "log"
	NotifierSMTP = "smtp"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorePath is the SQLite database file. Empty keeps candidates in memory.
	StorePath string `koanf:"store_path"`

	// ExperienceMultiplier is applied when an assess request gives none.
	ExperienceMultiplier float64 `koanf:"experience_multiplier"`

	// WorkerCount sets the number of background assessment workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the background assessment queue.
	QueueSize int `koanf:"queue_size"`

	// DefaultPageSize and MaxPageSize bound GET /candidates?take.
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// Notifier is "log" or "smtp".
	Notifier string `koanf:"notifier"`

	SMTP SMTP `koanf:"smtp"`
}

// SMTP holds outgoing mail settings used when Notifier is "smtp".
type SMTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":3000",
		ExperienceMultiplier: 1.2,
		WorkerCount:          runtime.NumCPU(),
		QueueSize:            1024,
		DefaultPageSize:      10,
		MaxPageSize:          100,
		Notifier:             NotifierLog,
		SMTP:                 SMTP{Port: 587},
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case c.ExperienceMultiplier < 0:
		return fmt.Errorf("experience_multiplier must be >= 0: %w", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("worker_count must be >= 1: %w", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("queue_size must be >= 1: %w", ErrInvalidConfig)
	case c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize:
		return fmt.Errorf("page sizes must satisfy 1 <= default_page_size <= max_page_size: %w", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q: %w", c.LogFormat, ErrInvalidConfig)
	}
	switch c.Notifier {
	case NotifierLog:
	case NotifierSMTP:
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			return fmt.Errorf("smtp notifier needs smtp.host and smtp.from: %w", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("notifier %q: %w", c.Notifier, ErrInvalidConfig)
	}
	return nil
}
