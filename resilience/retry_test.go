package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errConflict = errors.New("conflict")

func isConflict(err error) bool { return errors.Is(err, errConflict) }

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), FixedRetryConfig(3, time.Millisecond, isConflict), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("expected ok after 1 call, got %q after %d", result, calls)
	}
}

func TestRetry_SucceedsOnLastAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), FixedRetryConfig(3, time.Millisecond, isConflict), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errConflict
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 3 {
		t.Errorf("expected ok after 3 calls, got %q after %d", result, calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), FixedRetryConfig(3, time.Millisecond, isConflict), func() (int, error) {
		calls++
		return 0, errConflict
	})
	if !errors.Is(err, errConflict) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_RetryIfRejects(t *testing.T) {
	other := errors.New("bad request")
	calls := 0
	_, err := Retry(context.Background(), FixedRetryConfig(3, time.Millisecond, isConflict), func() (int, error) {
		calls++
		return 0, other
	})
	if !errors.Is(err, other) {
		t.Errorf("expected non-retryable error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_FixedDelay(t *testing.T) {
	var delays []time.Duration
	cfg := FixedRetryConfig(4, 5*time.Millisecond, nil)
	cfg.OnRetry = func(_ int, _ error, backoff time.Duration) {
		delays = append(delays, backoff)
	}
	_ = RetryFunc(context.Background(), cfg, func() error { return errConflict })

	if len(delays) != 3 {
		t.Fatalf("expected 3 retries, got %d", len(delays))
	}
	for i, d := range delays {
		if d != 5*time.Millisecond {
			t.Errorf("retry %d: expected 5ms delay, got %v", i, d)
		}
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := FixedRetryConfig(10, 50*time.Millisecond, nil)
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	_, err := Retry(ctx, cfg, func() (int, error) {
		calls++
		return 0, errConflict
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
		BackoffFactor:  2,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.attempt, cfg); got != tt.want {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
