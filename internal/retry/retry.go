// Package retry re-runs whole operations that failed with a retryable error.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/law-makers/igfetch/internal/pacing"
	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with jittered exponential backoff
type Config struct {
	// Retries is the number of extra attempts after the first; 0 disables retry
	Retries        int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// Policy jitters each backoff; nil means no jitter
	Policy *pacing.Policy
	// Sleep replaces the backoff wait, for tests
	Sleep func(context.Context, time.Duration) error
}

// DefaultConfig returns a configuration that never retries
func DefaultConfig() Config {
	return Config{
		Retries:        0,
		InitialBackoff: 1700 * time.Millisecond,
		MaxBackoff:     5 * time.Minute,
		Multiplier:     2.0,
	}
}

// WithRetry executes fn, retrying while the error is retryable. Only
// rate-limit failures qualify; every other error is returned at once.
func WithRetry[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = pacing.Wait
	}
	attempts := cfg.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Debug().
					Int("attempts", attempt+1).
					Msg("Retry succeeded")
			}
			return result, nil
		}

		lastErr = err

		if !igerr.Retryable(err) {
			log.Debug().
				Err(err).
				Str("kind", string(igerr.KindOf(err))).
				Msg("Error is not retryable")
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < attempts-1 {
			backoff := calculateBackoff(attempt, cfg)

			log.Warn().
				Int("attempt", attempt+1).
				Int("max_attempts", attempts).
				Dur("backoff", backoff).
				Err(err).
				Msg("Rate limited, retrying after backoff")

			if err := sleep(ctx, backoff); err != nil {
				return zero, err
			}
		}
	}

	if attempts == 1 {
		return zero, lastErr
	}

	log.Warn().
		Int("attempts", attempts).
		Err(lastErr).
		Msg("Max retry attempts exceeded")

	return zero, fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

// calculateBackoff returns initial*multiplier^attempt, capped and jittered
func calculateBackoff(attempt int, cfg Config) time.Duration {
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	backoff := float64(cfg.InitialBackoff) * math.Pow(multiplier, float64(attempt))

	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	d := time.Duration(backoff)
	if cfg.Policy != nil {
		d = cfg.Policy.ComputeDelay(d)
	}
	return d
}
