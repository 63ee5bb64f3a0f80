// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Defaults live in New; Load layers a .env file, an optional YAML file and
//     SMARTFARM_* environment variables on top.
//   - Credentials have no defaults. They must come from the environment or a file.
//   - Errors returned from this package wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var tableNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5001".
	Addr string `koanf:"addr"`

	// UpstreamURL is the sensor REST API every table request is sent to.
	UpstreamURL string `koanf:"upstream_url"`

	// UpstreamUser, UpstreamPass and UpstreamDB are injected into every
	// outbound payload.
	UpstreamUser string `koanf:"upstream_user"`
	UpstreamPass string `koanf:"upstream_pass"`
	UpstreamDB   string `koanf:"upstream_db"`

	// UpstreamTimeoutMS bounds a single outbound call.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// Tables is the allow-list served under /api/{table}.
	Tables []string `koanf:"tables"`

	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string `koanf:"cors_origin"`

	// MetricsEnabled toggles Prometheus recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":5001",
		UpstreamURL:       "https://azmiproductions.com/restazp/",
		UpstreamTimeoutMS: 10_000,
		Tables:            []string{"moisture", "dht22"},
		CORSOrigin:        "*",
		MetricsEnabled:    true,
	}
}

// UpstreamTimeout returns UpstreamTimeoutMS as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// Validate checks the fields the relay cannot run without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.UpstreamUser) == "":
		return fmt.Errorf("%w: upstream_user must be set", ErrInvalidConfig)
	case strings.TrimSpace(c.UpstreamDB) == "":
		return fmt.Errorf("%w: upstream_db must be set", ErrInvalidConfig)
	case c.UpstreamTimeoutMS <= 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	case len(c.Tables) == 0:
		return fmt.Errorf("%w: tables must not be empty", ErrInvalidConfig)
	}

	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return fmt.Errorf("%w: upstream_url: %v", ErrInvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: upstream_url must be an absolute http(s) URL", ErrInvalidConfig)
	}

	for _, t := range c.Tables {
		if !tableNameRegex.MatchString(t) {
			return fmt.Errorf("%w: invalid table name %q", ErrInvalidConfig, t)
		}
	}
	return nil
}
