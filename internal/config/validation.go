package config

import (
	"fmt"
	"net/url"
	"slices"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the values every command needs. The API key is checked
// separately by ValidateChat because serving tools over stdio works without
// one.
func (c *Config) Validate() error {
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	if err := validateEndpoint("nominatim_url", c.NominatimURL); err != nil {
		return err
	}
	if err := validateEndpoint("osrm_url", c.OSRMURL); err != nil {
		return err
	}

	if c.UserAgent == "" {
		return fmt.Errorf("%w: user_agent cannot be empty", ErrInvalidUserAgent)
	}

	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("%w: must be one of %v, got %q", ErrInvalidLogLevel, logLevels, c.LogLevel)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("%w: tracing.endpoint cannot be empty when tracing is enabled", ErrInvalidEndpoint)
	}
	return nil
}

// ValidateChat checks the additional values the chat command needs.
func (c *Config) ValidateChat() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}
	return nil
}

func validateEndpoint(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", ErrInvalidEndpoint, name, raw)
	}
	return nil
}
