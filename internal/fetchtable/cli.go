package fetchtable

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/smartfarm/pkg/logger"
)

// SetupLogging routes log lines to stderr so stdout carries only table output.
func SetupLogging(verbose bool) error {
	return setupLogging(os.Stderr, verbose)
}

func setupLogging(w io.Writer, verbose bool) error {
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the fetch tool.
func ShowHelp() {
	os.Stdout.WriteString(`Smartfarm Table Fetch Tool
==========================

Reads a sensor table through a running relay and prints it.

Usage:
  go run ./cmd/fetch-table [options]

Options:
  -url string
        Base URL of the relay (default "http://localhost:5001")
  -table string
        Table to read: moisture, dht22 or any allow-listed table (default "moisture")
  -timeout duration
        HTTP request timeout (default 15s)
  -format string
        Output format: json or yaml (default "json")
  -last int
        Keep only the newest N rows, ordered by id (0 keeps all)
  -watch
        Keep polling until interrupted
  -interval duration
        Poll interval with -watch (default 10s)
  -verbose
        Enable debug logging on stderr
  -help
        Show this help message

Examples:
  # Print the moisture table
  go run ./cmd/fetch-table

  # Latest 10 DHT22 readings as YAML, refreshed every 10s
  go run ./cmd/fetch-table -table dht22 -format yaml -last 10 -watch
`)
}
