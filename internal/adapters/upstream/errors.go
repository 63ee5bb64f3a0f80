package upstream

import (
	"errors"
	"fmt"
)

// Sentinel kinds for sensor API failures.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamStatus      = errors.New("upstream returned non-success status")
	ErrMalformedResponse   = errors.New("upstream returned malformed json")
	ErrResponseTooLarge    = errors.New("upstream response too large")
	ErrInvalidTable        = errors.New("invalid table")
)

// StatusError carries the status code of a non-2xx upstream response.
type StatusError struct {
	Table string
	Code  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: table %q: status %d", ErrUpstreamStatus, e.Table, e.Code)
}

// Unwrap lets errors.Is(err, ErrUpstreamStatus) match.
func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }
