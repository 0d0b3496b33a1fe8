package utils

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/internal/logger"
)

type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	// MaxJitter is the upper bound of the random fraction added on top of the
	// doubled backoff, e.g. 0.3 adds up to +30%.
	MaxJitter     float64
	OperationName string
	Log           logger.Logger
	// Sleep is swapped out in tests; nil means a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry runs op up to MaxAttempts times. The backoff before attempt n+1 is
// InitialBackoff doubled n-1 times, with jitter added after the doubling.
// The last error is returned once attempts are exhausted.
func Retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if cfg.Log != nil {
			cfg.Log.Warnf("%s failed (attempt %d/%d): %v", cfg.OperationName, attempt, cfg.MaxAttempts, lastErr)
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.InitialBackoff << (attempt - 1)
		if cfg.MaxJitter > 0 {
			delay = time.Duration(float64(delay) * (1 + rand.Float64()*cfg.MaxJitter))
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return errors.Wrapf(lastErr, "%s failed after %d attempts", cfg.OperationName, cfg.MaxAttempts)
}
