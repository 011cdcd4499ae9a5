// Package config provides configuration management for the downloads arranger.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultModel          = "claude-sonnet-4-5"
	DefaultMaxTokens      = 8192
	DefaultTemperature    = 0.3
	DefaultRoot           = "~/Downloads"
	DefaultStyleFile      = "~/.arrangestyle"
	DefaultStreamTimeout  = 10 * time.Minute
	DefaultIdleTimeout    = 2 * time.Minute
	DefaultConfirmTimeout = 5 * time.Minute
)

// Config holds the configuration for one invocation
type Config struct {
	// Generator
	AnthropicAPIKey  string
	AnthropicBaseURL string
	Model            string
	MaxTokens        int64
	Temperature      float64

	// Arrangement
	Root      string
	StyleFile string

	// Timeouts
	StreamTimeout  time.Duration
	IdleTimeout    time.Duration
	ConfirmTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Telemetry
	TelemetryEnabled  bool
	TelemetryEndpoint string
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Model:          DefaultModel,
		MaxTokens:      DefaultMaxTokens,
		Temperature:    DefaultTemperature,
		Root:           DefaultRoot,
		StyleFile:      DefaultStyleFile,
		StreamTimeout:  DefaultStreamTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		ConfirmTimeout: DefaultConfirmTimeout,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Load loads configuration from environment variables on top of the defaults. Every malformed value is reported
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	c := Default()
	var errs []error

	loadString := func(dest *string, key string) {
		if v := getenv(key); v != "" {
			*dest = v
		}
	}
	parse := func(key string, parseFn func(string) error) {
		v := getenv(key)
		if v == "" {
			return // Leave default value
		}
		if err := parseFn(v); err != nil {
			errs = append(errs, fmt.Errorf("failed to parse environment variable '%s' value '%s': %w", key, v, err))
		}
	}
	parseDuration := func(dest *time.Duration, key string) {
		parse(key, func(v string) (err error) {
			*dest, err = time.ParseDuration(v)
			return err
		})
	}

	loadString(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	loadString(&c.AnthropicBaseURL, "ANTHROPIC_BASE_URL")
	loadString(&c.Model, "ARRANGE_MODEL")
	parse("ARRANGE_MAX_TOKENS", func(v string) (err error) {
		c.MaxTokens, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	parse("ARRANGE_TEMPERATURE", func(v string) (err error) {
		c.Temperature, err = strconv.ParseFloat(v, 64)
		return err
	})
	loadString(&c.Root, "ARRANGE_ROOT")
	loadString(&c.StyleFile, "ARRANGE_STYLE_FILE")
	parseDuration(&c.StreamTimeout, "ARRANGE_STREAM_TIMEOUT")
	parseDuration(&c.IdleTimeout, "ARRANGE_IDLE_TIMEOUT")
	parseDuration(&c.ConfirmTimeout, "ARRANGE_CONFIRM_TIMEOUT")
	loadString(&c.LogLevel, "ARRANGE_LOG_LEVEL")
	loadString(&c.LogFormat, "ARRANGE_LOG_FORMAT")
	parse("ARRANGE_TELEMETRY_ENABLED", func(v string) (err error) {
		c.TelemetryEnabled, err = strconv.ParseBool(v)
		return err
	})
	loadString(&c.TelemetryEndpoint, "ARRANGE_TELEMETRY_ENDPOINT")

	return c, errors.Join(errs...)
}

// Validate checks the settings every command needs
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, fmt.Errorf("root directory must be set"))
	}
	if c.StreamTimeout < 0 || c.IdleTimeout < 0 || c.ConfirmTimeout < 0 {
		errs = append(errs, fmt.Errorf("timeouts must not be negative"))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format '%s', expected 'console' or 'json'", c.LogFormat))
	}
	if c.TelemetryEnabled && c.TelemetryEndpoint == "" {
		errs = append(errs, fmt.Errorf("telemetry is enabled but ARRANGE_TELEMETRY_ENDPOINT is not set"))
	}
	return errors.Join(errs...)
}

// ValidateGenerator checks the settings needed to stream from the model
func (c Config) ValidateGenerator() error {
	var errs []error
	if c.AnthropicAPIKey == "" {
		errs = append(errs, fmt.Errorf("missing required environment variable: ANTHROPIC_API_KEY"))
	}
	if c.Model == "" {
		errs = append(errs, fmt.Errorf("model must be set"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 1, got %g", c.Temperature))
	}
	return errors.Join(errs...)
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
