package syncpolicy

import (
	"context"
	"errors"
	"net"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 300 * time.Millisecond
)

// StatusCoder is implemented by errors that carry an HTTP-style status code.
type StatusCoder interface {
	HTTPStatus() int
}

// Transient is implemented by errors that describe a connectivity or timeout
// failure of the transport.
type Transient interface {
	Transient() bool
}

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy retries transport failures and 5xx responses with linear backoff:
// the wait after attempt n is BaseDelay * n.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       SleepFunc
}

// NewRetryPolicy returns a policy with the given limits. Non-positive values
// fall back to the defaults.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, Sleep: SleepContext}
}

// ShouldRetry reports whether the failure of attempt (1-based) warrants
// another attempt.
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt >= p.maxAttempts() {
		return false
	}
	return IsRetryable(err)
}

// IsRetryable classifies err: transport failures always retry, status errors
// retry only for 5xx, everything else (4xx, malformed payloads, cancellation,
// programming errors) does not.
func IsRetryable(err error) bool {
	var coder StatusCoder
	if errors.As(err, &coder) {
		code := coder.HTTPStatus()
		return code >= 500 && code <= 599
	}

	var transient Transient
	if errors.As(err, &transient) {
		return transient.Transient()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Run invokes op until it succeeds, fails with a non-retryable error, or the
// attempt cap is reached; the last error is returned unchanged. Cancellation
// of ctx stops the loop at once, during backoff or after a failed attempt.
func (p RetryPolicy) Run(ctx context.Context, op func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !p.ShouldRetry(attempt, err) {
			return err
		}

		if serr := sleep(ctx, p.Backoff(attempt)); serr != nil {
			return serr
		}
	}
}

// Backoff returns the wait between attempt and attempt+1.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return base * time.Duration(attempt)
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// SleepContext is the default SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
