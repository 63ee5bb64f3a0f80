package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownTable = errors.New("unknown table")
	ErrNoFetcher    = errors.New("no upstream fetcher configured")
	ErrNotStarted   = errors.New("service not started")
)
