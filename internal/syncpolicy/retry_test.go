package syncpolicy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct{ code int }

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) HTTPStatus() int { return e.code }

type transientErr struct{}

func (transientErr) Error() string   { return "connection reset" }
func (transientErr) Transient() bool { return true }

// recordingSleep captures requested backoffs instead of waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func testPolicy(rec *recordingSleep) RetryPolicy {
	p := NewRetryPolicy(0, 0)
	p.Sleep = rec.sleep
	return p
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"transport failure", transientErr{}, true},
		{"wrapped transport failure", fmt.Errorf("search: %w", transientErr{}), true},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"500", statusErr{500}, true},
		{"503 wrapped", fmt.Errorf("x: %w", statusErr{503}), true},
		{"404", statusErr{404}, false},
		{"429", statusErr{429}, false},
		{"malformed response", errors.New("decode response: unexpected EOF"), false},
		{"caller cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond)

	assert.True(t, p.ShouldRetry(1, transientErr{}))
	assert.True(t, p.ShouldRetry(2, transientErr{}))
	assert.False(t, p.ShouldRetry(3, transientErr{}))
	assert.False(t, p.ShouldRetry(1, statusErr{400}))
	assert.False(t, p.ShouldRetry(1, nil))
}

func TestRetryPolicy_RunExhaustsAttempts(t *testing.T) {
	rec := &recordingSleep{}
	p := testPolicy(rec)

	calls := 0
	connErr := transientErr{}
	err := p.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return connErr
	})

	assert.Equal(t, connErr, err, "last error is propagated unchanged")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 600 * time.Millisecond}, rec.delays)
}

func TestRetryPolicy_RunSucceedsAfterRetry(t *testing.T) {
	rec := &recordingSleep{}
	p := testPolicy(rec)

	calls := 0
	err := p.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return statusErr{502}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, rec.delays)
}

func TestRetryPolicy_RunDoesNotRetryClientErrors(t *testing.T) {
	rec := &recordingSleep{}
	p := testPolicy(rec)

	calls := 0
	err := p.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return statusErr{404}
	})

	assert.Equal(t, statusErr{404}, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestRetryPolicy_RunStopsOnCancelDuringBackoff(t *testing.T) {
	p := NewRetryPolicy(3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(ctx context.Context) error {
			calls++
			return transientErr{}
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop did not stop after cancellation")
	}
}

func TestRetryPolicy_RunStopsWhenOperationSeesCancel(t *testing.T) {
	rec := &recordingSleep{}
	p := testPolicy(rec)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Run(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return transientErr{}
	})

	assert.Equal(t, transientErr{}, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestRetryPolicy_CustomAttempts(t *testing.T) {
	rec := &recordingSleep{}
	p := NewRetryPolicy(5, 10*time.Millisecond)
	p.Sleep = rec.sleep

	calls := 0
	_ = p.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return transientErr{}
	})

	assert.Equal(t, 5, calls)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond, 40 * time.Millisecond,
	}, rec.delays)
}
