// pkg/retry/retry.go

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/windowsadmins/setupinfo/pkg/logging"
)

// RetryConfig defines the configuration for retry attempts
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
}

// permanentError stops Retry after the current attempt.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs action up to MaxRetries+1 times with exponential backoff. It
// stops early on success, on a Permanent error or when ctx is done, and
// returns the last error.
func Retry(ctx context.Context, config RetryConfig, action func() error) error {
	interval := config.InitialInterval
	attempts := config.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = action()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == attempts {
			break
		}

		logging.Warn("Attempt failed, retrying", "attempt", attempt, "of", attempts, "error", err, "wait", interval.String())
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if config.Multiplier > 0 {
			interval = time.Duration(float64(interval) * config.Multiplier)
		}
	}
	if attempts == 1 {
		return err
	}
	return fmt.Errorf("action failed after %d attempts: %w", attempts, err)
}
