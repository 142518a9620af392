package modal

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRunWithRetry_SucceedsAfterRetryableFailures(t *testing.T) {
	attempts := 0
	err := runWithRetry(context.Background(), 5, func(ctx context.Context, attempt int, elapsed time.Duration) error {
		attempts++
		if attempts < 3 {
			return status.Error(codes.Unavailable, "transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	err := runWithRetry(context.Background(), 5, func(ctx context.Context, attempt int, elapsed time.Duration) error {
		attempts++
		return status.Error(codes.InvalidArgument, "bad request")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestRunWithRetry_ExhaustsMaxAttempts(t *testing.T) {
	attempts := 0
	err := runWithRetry(context.Background(), 3, func(ctx context.Context, attempt int, elapsed time.Duration) error {
		attempts++
		return status.Error(codes.Unavailable, "still down")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunWithRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runWithRetry(ctx, 3, func(ctx context.Context, attempt int, elapsed time.Duration) error {
		return status.Error(codes.Unavailable, "down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryDelay_CappedAtMax(t *testing.T) {
	for attempt := 0; attempt < 20; attempt++ {
		d := retryDelay(attempt)
		if d > retryMaxDelay+retryMaxDelay/5 {
			t.Fatalf("attempt %d: delay %v exceeded cap plus jitter", attempt, d)
		}
	}
}

func TestIsRetryable_CoversFullSpecSet(t *testing.T) {
	retryable := []codes.Code{codes.DeadlineExceeded, codes.Unavailable, codes.Canceled, codes.Internal, codes.Unknown}
	for _, code := range retryable {
		if !isRetryable(status.Error(code, "transient")) {
			t.Fatalf("expected %v to be retryable", code)
		}
	}
	if isRetryable(status.Error(codes.InvalidArgument, "bad")) {
		t.Fatalf("expected InvalidArgument not to be retryable")
	}
}

func TestRunWithRetry_RetriesOnCancelledAndUnknown(t *testing.T) {
	for _, code := range []codes.Code{codes.Canceled, codes.Unknown} {
		attempts := 0
		err := runWithRetry(context.Background(), 3, func(ctx context.Context, attempt int, elapsed time.Duration) error {
			attempts++
			if attempts < 2 {
				return status.Error(code, "transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("code %v: expected eventual success, got %v", code, err)
		}
		if attempts != 2 {
			t.Fatalf("code %v: expected 2 attempts, got %d", code, attempts)
		}
	}
}

func TestRetryHeaderHints_OmitsDelayOnFirstAttempt(t *testing.T) {
	hints := retryHeaderHints(0, 0)
	if _, ok := hints["retry-delay"]; ok {
		t.Fatalf("expected no retry-delay header on attempt 0")
	}
	hints = retryHeaderHints(1, 1500*time.Millisecond)
	if hints["retry-delay"] != "1.500" {
		t.Fatalf("expected retry-delay %q, got %q", "1.500", hints["retry-delay"])
	}
}
