// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables (prefix ROAM_, plus GEMINI_API_KEY for the key)
//  2. Config file (~/.roam/config.yaml, or ./config.yaml)
//  3. Defaults
//
// Sensitive values (the API key) are never logged; validation uses sentinel
// errors checkable with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the Gemini API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEndpoint indicates a collaborator endpoint URL is malformed.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidLogLevel indicates the log level is not one of debug, info,
	// warn, error.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidUserAgent indicates the geocoder user agent is empty.
	// Nominatim's usage policy requires an identifying agent.
	ErrInvalidUserAgent = errors.New("invalid user agent")
)

// TracingConfig configures the OTLP trace exporter. Disabled by default.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"` // host:port of the OTLP HTTP collector
	Environment string `mapstructure:"environment"`
}

// Config stores application configuration.
type Config struct {
	// Model configuration. GeminiAPIKey comes from GEMINI_API_KEY and is
	// required for chat, not for mcp/version.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`

	// Map collaborator endpoints.
	NominatimURL string `mapstructure:"nominatim_url"`
	OSRMURL      string `mapstructure:"osrm_url"`
	UserAgent    string `mapstructure:"user_agent"`

	// Logging.
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`

	// Observability.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// Load loads configuration and validates the always-required values.
// Priority: environment variables > config file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".roam")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("ROAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The key follows the conventional variable name rather than the prefix.
	if err := v.BindEnv("gemini_api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding GEMINI_API_KEY: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", "gemini-2.5-flash")

	v.SetDefault("nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("osrm_url", "https://router.project-osrm.org")
	v.SetDefault("user_agent", "roam/1.0 (terminal map assistant)")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.environment", "dev")
}
