package fetchtable

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	// ErrInvalidConfig is returned when the CLI flags do not make a runnable config.
	ErrInvalidConfig = errors.New("invalid fetch config")
	// ErrRelayStatus is returned when the relay answers with a non-200 status.
	ErrRelayStatus = errors.New("relay returned non-success status")
	// ErrRelayUnavailable is returned when the relay cannot be reached.
	ErrRelayUnavailable = errors.New("relay unavailable")
)

// Config holds configuration for one fetch run.
type Config struct {
	BaseURL  string        // Base URL of the relay
	Table    string        // Table to read
	Timeout  time.Duration // HTTP request timeout
	Format   string        // json or yaml
	Last     int           // Keep only the newest N rows; 0 keeps all
	Watch    bool          // Poll until the context ends
	Interval time.Duration // Poll interval with Watch
	Out      io.Writer     // Destination for rendered tables
}

// Validate normalizes the config and reports the first problem found.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Table = strings.TrimSpace(c.Table)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.BaseURL)
	}
	if c.Table == "" || strings.Contains(c.Table, "/") {
		return fmt.Errorf("%w: table %q", ErrInvalidConfig, c.Table)
	}
	if c.Format != FormatJSON && c.Format != FormatYAML {
		return fmt.Errorf("%w: format must be json or yaml, got %q", ErrInvalidConfig, c.Format)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.Last < 0 {
		return fmt.Errorf("%w: last must not be negative", ErrInvalidConfig)
	}
	if c.Watch && c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive with -watch", ErrInvalidConfig)
	}
	if c.Out == nil {
		return fmt.Errorf("%w: no output writer", ErrInvalidConfig)
	}
	return nil
}
