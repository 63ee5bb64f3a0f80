package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/smartfarm/internal/fetchtable"
)

// Default configuration constants.
const (
	defaultBaseURL  = "http://localhost:5001"
	defaultTimeout  = 15 * time.Second
	defaultInterval = 10 * time.Second
)

func main() {
	var (
		baseURL  = flag.String("url", defaultBaseURL, "Base URL of the relay")
		table    = flag.String("table", "moisture", "Table to read")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		format   = flag.String("format", fetchtable.FormatJSON, "Output format: json or yaml")
		last     = flag.Int("last", 0, "Keep only the newest N rows, ordered by id (0 keeps all)")
		watch    = flag.Bool("watch", false, "Keep polling until interrupted")
		interval = flag.Duration("interval", defaultInterval, "Poll interval with -watch")
		verbose  = flag.Bool("verbose", false, "Enable debug logging on stderr")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fetchtable.ShowHelp()
		return
	}

	if err := fetchtable.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &fetchtable.Config{
		BaseURL:  *baseURL,
		Table:    *table,
		Timeout:  *timeout,
		Format:   *format,
		Last:     *last,
		Watch:    *watch,
		Interval: *interval,
		Out:      os.Stdout,
	}

	if err := fetchtable.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Fetch failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
