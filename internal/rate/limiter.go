// Package rate provides windowed admission control for the public and
// per-account endpoints. Two backends exist: an in-process sliding
// window for single-instance deployments and a Redis fixed window
// shared across instances.
package rate

import (
	"context"
	"time"
)

// Limiter admits or rejects a request for a key. Allow records the
// request as a side effect when it is admitted.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Config sets the ceiling for a single named limiter: at most Calls
// requests per key inside a trailing window of Per.
type Config struct {
	Calls int
	Per   time.Duration
}

// DefaultIPConfig is the broad per-IP budget applied to public
// unauthenticated endpoints.
func DefaultIPConfig() Config {
	return Config{Calls: 100, Per: 60 * time.Second}
}

// DefaultKeyConfig is the tight per-identifier budget reserved for
// sensitive account operations.
func DefaultKeyConfig() Config {
	return Config{Calls: 10, Per: 60 * time.Second}
}
