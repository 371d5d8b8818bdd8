// Package retry provides exponential backoff retry for provider transport calls.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/portfolio-snapshot/internal/logging"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int           // Maximum number of attempts, including the first
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Upper bound on the delay between retries
	Multiplier   float64       // Multiplier for exponential backoff
}

// DefaultConfig returns the default retry configuration.
// Pattern: 1s, 2s, 4s, capped at 10s.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// Func is a function that can be retried
type Func func(ctx context.Context, attempt int) error

// Do executes fn with exponential backoff until it succeeds, the attempts are
// exhausted, or the context is cancelled.
func Do(ctx context.Context, config *Config, fn Func) error {
	logger := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				logger.WithField("attempts", attempt).Info("Operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if attempt >= config.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}

		delay := backoffDelay(config, attempt)
		logger.WithFields(map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": config.MaxAttempts,
			"delay":       delay.String(),
			"error":       err.Error(),
		}).Warn("Operation failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// backoffDelay computes initialDelay * multiplier^(attempt-1), capped at MaxDelay
func backoffDelay(config *Config, attempt int) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
