// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.synapse/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Server: backend base URL, API token, request timeout
//   - Chat: default model, default branch, history limit
//   - Canvas: auto-open threshold for streamed code blocks
//   - Log: level and format
//
// Security: the API token is never logged; the config directory uses 0750
// permissions.
//
// Error Handling: sentinel errors for Go-idiomatic checking with errors.Is(),
// wrapped with fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidServerURL indicates the backend base URL is missing or malformed.
	ErrInvalidServerURL = errors.New("invalid server URL")

	// ErrInvalidModel indicates the model name is empty.
	ErrInvalidModel = errors.New("invalid model name")

	// ErrInvalidHistoryLimit indicates the history limit is out of range.
	ErrInvalidHistoryLimit = errors.New("invalid history limit")

	// ErrInvalidTimeout indicates the request timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid request timeout")

	// ErrInvalidThreshold indicates the canvas auto-open threshold is negative.
	ErrInvalidThreshold = errors.New("invalid canvas auto-open threshold")
)

const (
	// DefaultModel is the model requested when the user has not picked one.
	DefaultModel = "gpt-4o-mini"

	// DefaultBranch is the branch every conversation starts on.
	DefaultBranch = "main"

	// DefaultHistoryLimit is the default number of messages fetched per
	// conversation.
	DefaultHistoryLimit = 200

	// MaxHistoryLimit is the absolute maximum to prevent OOM.
	MaxHistoryLimit = 10000

	// MinHistoryLimit is the minimum allowed history limit.
	MinHistoryLimit = 10

	// DefaultCanvasAutoOpen is the minimum size in bytes of a streamed
	// fenced code block that auto-opens the canvas.
	DefaultCanvasAutoOpen = 100

	// DefaultTimeoutSeconds applies to non-streaming backend requests.
	// Streaming requests are bounded by their own context.
	DefaultTimeoutSeconds = 30
)

// Config stores application configuration.
// SECURITY: Token is masked in String(); never log the struct directly.
type Config struct {
	// Backend connection
	ServerURL string `mapstructure:"server_url"`
	Token     string `mapstructure:"token"` // SENSITIVE

	// Chat defaults
	Model        string `mapstructure:"model"`
	Branch       string `mapstructure:"branch"`
	HistoryLimit int    `mapstructure:"history_limit"`

	// Canvas
	CanvasAutoOpen int `mapstructure:"canvas_auto_open"`

	// HTTP
	TimeoutSeconds int `mapstructure:"timeout_seconds"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".synapse")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://localhost:8001")
	v.SetDefault("model", DefaultModel)
	v.SetDefault("branch", DefaultBranch)
	v.SetDefault("history_limit", DefaultHistoryLimit)
	v.SetDefault("canvas_auto_open", DefaultCanvasAutoOpen)
	v.SetDefault("timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment overrides explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("server_url", "SYNAPSE_SERVER_URL")
	mustBind("token", "SYNAPSE_TOKEN")
	mustBind("model", "SYNAPSE_MODEL")
	mustBind("branch", "SYNAPSE_BRANCH")
	mustBind("log_level", "SYNAPSE_LOG_LEVEL")
}

// Validate checks the configuration for out-of-range or malformed values.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidServerURL, c.ServerURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidServerURL, u.Scheme)
	}

	if c.Model == "" {
		return ErrInvalidModel
	}

	if c.HistoryLimit < MinHistoryLimit || c.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("%w: %d (allowed %d-%d)", ErrInvalidHistoryLimit,
			c.HistoryLimit, MinHistoryLimit, MaxHistoryLimit)
	}

	if c.TimeoutSeconds <= 0 || c.TimeoutSeconds > 600 {
		return fmt.Errorf("%w: %d seconds", ErrInvalidTimeout, c.TimeoutSeconds)
	}

	if c.CanvasAutoOpen < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, c.CanvasAutoOpen)
	}

	if c.Branch == "" {
		c.Branch = DefaultBranch
	}

	return nil
}

// String implements fmt.Stringer with the token masked.
func (c *Config) String() string {
	token := ""
	if c.Token != "" {
		token = "********"
	}
	return fmt.Sprintf("Config{ServerURL:%s Token:%s Model:%s Branch:%s}",
		c.ServerURL, token, c.Model, c.Branch)
}
