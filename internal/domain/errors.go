package domain

import (
	"errors"
	"fmt"
)

// ErrStaleObservation signals that the current observation is malformed,
// missing, or older than the configured age threshold. The loop skips the
// cycle instead of acting on a guessed pose.
var ErrStaleObservation = errors.New("stale observation")

// ErrUnreachable signals that no feasible route exists to the remaining
// waypoints or the goal.
var ErrUnreachable = errors.New("no feasible route to remaining targets")

// ErrMalformedMessage signals an inbound payload outside the known message
// tags. Recoverable: it counts as "no update this cycle".
var ErrMalformedMessage = errors.New("malformed simulator message")

// ConfigError reports inconsistent startup configuration or arena geometry.
// Fatal: no run is attempted.
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Detail)
}

// TransportError reports a failure at the simulator channel boundary.
// Fatal means the channel itself is no longer open; transient errors are
// retried by the loop with backoff.
type TransportError struct {
	Op    string
	Fatal bool
	Err   error
}

func (e *TransportError) Error() string {
	kind := "transient"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("transport %s: %s: %v", kind, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsFatalTransport reports whether err wraps a fatal TransportError.
func IsFatalTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Fatal
}
