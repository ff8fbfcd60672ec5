// Package config provides configuration types and defaults for loanpoll.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/npratt/loanpoll/internal/status"
)

// Source kinds.
const (
	SourceHTTP    = "http"
	SourceCommand = "command"
	SourceFile    = "file"
)

// Config holds all configuration for loanpoll.
type Config struct {
	Source      SourceConfig      `yaml:"source" mapstructure:"source"`
	Polling     PollingConfig     `yaml:"polling" mapstructure:"polling"`
	Codes       status.Codes      `yaml:"codes" mapstructure:"codes"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// SourceConfig selects and configures where status payloads come from.
type SourceConfig struct {
	Kind     string        `yaml:"kind" mapstructure:"kind"`         // http, command or file
	URL      string        `yaml:"url" mapstructure:"url"`           // http: endpoint to GET
	Headers  []string      `yaml:"headers" mapstructure:"headers"`   // http: "Name: value" pairs
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`   // per fetch; 0 = no limit
	Command  string        `yaml:"command" mapstructure:"command"`   // command: executable
	Args     []string      `yaml:"args" mapstructure:"args"`         // command: arguments
	Dir      string        `yaml:"dir" mapstructure:"dir"`           // command: working directory
	Env      []string      `yaml:"env" mapstructure:"env"`           // command: extra KEY=VALUE pairs
	Path     string        `yaml:"path" mapstructure:"path"`         // file: JSON payload path
	Envelope string        `yaml:"envelope" mapstructure:"envelope"` // key wrapping the payload, if any
}

// PollingConfig tunes the refresh schedule.
type PollingConfig struct {
	FallbackCountdownSeconds int           `yaml:"fallback_countdown_seconds" mapstructure:"fallback_countdown_seconds"`
	MidCountdownEvery        int           `yaml:"mid_countdown_every" mapstructure:"mid_countdown_every"` // ticks between mid-countdown refreshes; 0 disables
	Tick                     time.Duration `yaml:"tick" mapstructure:"tick"`
	EventBuffer              int           `yaml:"event_buffer" mapstructure:"event_buffer"`
}

// PathsConfig holds file paths for the event log and debug log.
type PathsConfig struct {
	Events string `yaml:"events" mapstructure:"events"`
	Log    string `yaml:"log" mapstructure:"log"`
}

// LogRotationConfig holds settings for the TUI debug log rotation.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:    SourceHTTP,
			Headers: []string{},
			Timeout: 10 * time.Second,
			Args:    []string{},
			Env:     []string{},
		},
		Polling: PollingConfig{
			FallbackCountdownSeconds: 60,
			MidCountdownEvery:        5,
			Tick:                     time.Second,
			EventBuffer:              100,
		},
		Codes: status.DefaultCodes(),
		Paths: PathsConfig{
			Events: ".loanpoll/events.jsonl",
			Log:    ".loanpoll/loanpoll.log",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Source.Kind {
	case SourceHTTP:
		if c.Source.URL == "" {
			errs = append(errs, errors.New("source.url is required for http sources"))
		}
		for _, h := range c.Source.Headers {
			if _, _, ok := SplitHeader(h); !ok {
				errs = append(errs, fmt.Errorf("source.headers entry %q must look like \"Name: value\"", h))
			}
		}
	case SourceCommand:
		if c.Source.Command == "" {
			errs = append(errs, errors.New("source.command is required for command sources"))
		}
	case SourceFile:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path is required for file sources"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind %q must be one of http, command, file", c.Source.Kind))
	}
	if c.Source.Timeout < 0 {
		errs = append(errs, fmt.Errorf("source.timeout must not be negative, got %s", c.Source.Timeout))
	}

	if c.Polling.FallbackCountdownSeconds <= 0 {
		errs = append(errs, fmt.Errorf("polling.fallback_countdown_seconds must be positive, got %d", c.Polling.FallbackCountdownSeconds))
	}
	if c.Polling.MidCountdownEvery < 0 {
		errs = append(errs, fmt.Errorf("polling.mid_countdown_every must not be negative, got %d", c.Polling.MidCountdownEvery))
	}
	if c.Polling.Tick <= 0 {
		errs = append(errs, fmt.Errorf("polling.tick must be positive, got %s", c.Polling.Tick))
	}

	if len(c.Codes.Entry.UnderReview) == 0 {
		errs = append(errs, errors.New("codes.entry.under_review must list at least one code"))
	}
	r := c.Codes.Repayment
	if r.Disbursing == "" || r.DisbursementFailed == "" || r.InRepayment == "" {
		errs = append(errs, errors.New("codes.repayment values must not be empty"))
	}

	return errors.Join(errs...)
}

// SplitHeader parses a "Name: value" header entry.
func SplitHeader(h string) (name, value string, ok bool) {
	name, value, found := strings.Cut(h, ":")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}
