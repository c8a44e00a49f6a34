// Package timeouts provides centralized timeout values for bootstrap operations.
//
// Every database round-trip runs under one of these bounds. A bound that
// expires surfaces as a fatal error; nothing is retried.
//
// Guidelines for choosing a timeout:
//   - Connect: establishing the client and the initial ping
//   - Operation: one index listing, index build, count or insert
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultConnect   = 10 * time.Second
	DefaultOperation = 30 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	connect   = DefaultConnect
	operation = DefaultOperation
)

// Connect returns the timeout for connecting to and pinging the database.
func Connect() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return connect
}

// Operation returns the timeout for a single database round-trip. Index
// builds on large collections are the slowest case.
func Operation() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return operation
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Connect   time.Duration
	Operation time.Duration
}

// Configure sets custom timeout values. Zero values in the config are ignored,
// keeping the current (or default) values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Connect > 0 {
		connect = cfg.Connect
	}
	if cfg.Operation > 0 {
		operation = cfg.Operation
	}
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	connect = DefaultConnect
	operation = DefaultOperation
}

// Current returns the current timeout configuration as a Config struct.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Connect: connect, Operation: operation}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
// Example:
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Operation(), logger, "ensure indexes")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
