// internal/crawler/retry_test.go
package crawler

import (
	"context"
	"errors"
	"testing"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	r := NewRetryExecutor()
	calls := 0

	err := r.Execute(context.Background(), "op", 3, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	r := NewRetryExecutor()
	calls := 0

	err := r.Execute(context.Background(), "op", 3, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustion(t *testing.T) {
	r := NewRetryExecutor()
	calls := 0
	opErr := errors.New("permanent")

	err := r.Execute(context.Background(), "op", 3, func(ctx context.Context) error {
		calls++
		return opErr
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !IsExhausted(err) {
		t.Fatalf("err = %v, want exhausted-retries error", err)
	}
	if !errors.Is(err, opErr) {
		t.Error("exhaustion error should wrap the final attempt error")
	}

	var exhausted *ExhaustedRetriesError
	if errors.As(err, &exhausted) && exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}
}

func TestRetryClampsAttemptsToOne(t *testing.T) {
	r := NewRetryExecutor()

	for _, maxAttempts := range []int{0, -5} {
		calls := 0
		err := r.Execute(context.Background(), "op", maxAttempts, func(ctx context.Context) error {
			calls++
			return errors.New("fail")
		})
		if calls != 1 {
			t.Errorf("maxAttempts=%d: calls = %d, want 1", maxAttempts, calls)
		}
		if !IsExhausted(err) {
			t.Errorf("maxAttempts=%d: err = %v, want exhausted-retries error", maxAttempts, err)
		}
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	r := NewRetryExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := r.Execute(ctx, "op", 5, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if IsExhausted(err) {
		t.Error("cancellation should not surface as exhaustion")
	}
}
