package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/acme/taskmanager/pkg/apperrors"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxRetries       int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	Multiplier       float64
	JitterFactor     float64 // 0.0-1.0, +/- fraction applied to each delay
	MaxSameErrorType int     // after N consecutive same-type errors, give up early
}

// DefaultConfig returns defaults for waiting on a database at startup:
// 5 retries starting at 200ms, capped at 5s, doubling each time, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       5,
		InitialDelay:     200 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		Multiplier:       2.0,
		JitterFactor:     0.1,
		MaxSameErrorType: 5,
	}
}

// applyJitter returns delay +/- (delay * jitterFactor * random(-1 to +1)).
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// nextDelay grows delay by the multiplier, capped at MaxDelay.
func (c *Config) nextDelay(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * c.Multiplier)
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// IsRetryable reports whether err is transient and worth retrying.
// Errors wrapping apperrors.ErrStoreUnavailable are always retryable;
// anything else is matched against known connection failure messages.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, apperrors.ErrStoreUnavailable) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"timeout",
		"timed out",
		"temporary failure",
		"too many connections",
		"too many clients",
		"the database system is starting up",
		"the database system is shutting down",
		"deadlock",
		"database is locked",
		"network is unreachable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// classifyErrorType extracts a coarse category used to detect repeated
// failures of the same kind.
func classifyErrorType(err error) string {
	if err == nil {
		return "nil"
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "connection reset"):
		return "connection"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "timed out"):
		return "timeout"
	case strings.Contains(errStr, "broken pipe"):
		return "broken_pipe"
	case strings.Contains(errStr, "no such host"), strings.Contains(errStr, "temporary failure"):
		return "dns"
	case strings.Contains(errStr, "too many connections"), strings.Contains(errStr, "too many clients"):
		return "capacity"
	case strings.Contains(errStr, "starting up"), strings.Contains(errStr, "shutting down"):
		return "server_state"
	case strings.Contains(errStr, "deadlock"), strings.Contains(errStr, "database is locked"):
		return "lock"
	}

	return "unknown"
}

// DoIfRetryable only retries transient errors; permanent ones (bad
// credentials, bad SQL) are returned immediately. After MaxSameErrorType
// consecutive failures of the same type it gives up early.
func DoIfRetryable(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	delay := cfg.InitialDelay
	sameErrorCount := 0
	var lastErrorType string

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}

		currentErrorType := classifyErrorType(err)
		if currentErrorType == lastErrorType {
			sameErrorCount++
			if cfg.MaxSameErrorType > 0 && sameErrorCount >= cfg.MaxSameErrorType {
				return fmt.Errorf("repeated error (%d times, type=%s): %w", sameErrorCount, currentErrorType, err)
			}
		} else {
			sameErrorCount = 1
			lastErrorType = currentErrorType
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-time.After(applyJitter(delay, cfg.JitterFactor)):
				delay = cfg.nextDelay(delay)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}
