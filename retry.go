package modal

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// retryableCodes is the set of gRPC status codes the retry middleware will
// re-attempt on, unary calls only. The set is fixed: there is no per-call
// way to add codes to it.
var retryableCodes = map[codes.Code]bool{
	codes.DeadlineExceeded: true,
	codes.Unavailable:      true,
	codes.Canceled:         true,
	codes.Internal:         true,
	codes.Unknown:          true,
}

const (
	defaultRetryAttempts = 3
	retryBaseDelay       = 100 * time.Millisecond
	retryMaxDelay        = 1 * time.Second
)

// retryDelay computes the exponential backoff delay for the given attempt
// (0-indexed), capped at retryMaxDelay, with up to 20% jitter so that many
// concurrently-retrying callers don't all wake up on the same tick.
func retryDelay(attempt int) time.Duration {
	d := retryBaseDelay << attempt
	if d > retryMaxDelay || d <= 0 {
		d = retryMaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 5))
	return d + jitter
}

// retryHeaderHints returns the per-attempt headers the server uses to
// de-duplicate retried attempts of the same logical request. elapsed is
// the time since the first attempt of this logical call; retry-delay is
// only meaningful (and only sent) from attempt 1 onwards, as seconds with
// 3 decimal places.
func retryHeaderHints(attempt int, elapsed time.Duration) map[string]string {
	headers := map[string]string{
		"retry-attempt": strconv.Itoa(attempt),
	}
	if attempt > 0 {
		headers["retry-delay"] = strconv.FormatFloat(elapsed.Seconds(), 'f', 3, 64)
	}
	return headers
}

// isStreamingMethod reports whether fullMethod is one of the server- or
// bidi-streaming RPCs the retry interceptor must never wrap, since replaying
// a stream from scratch after partial consumption would silently corrupt
// the caller's view of it.
func isStreamingMethod(fullMethod string, streaming map[string]struct{}) bool {
	_, ok := streaming[fullMethod]
	return ok
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return retryableCodes[st.Code()]
}

// runWithRetry executes fn up to maxAttempts times, retrying only on
// retryableCodes, honoring ctx cancellation between attempts. fn receives
// the elapsed time since the first attempt, so callers can report the real
// retry-delay rather than redrawing a fresh jittered value.
func runWithRetry(ctx context.Context, maxAttempts int, fn func(ctx context.Context, attempt int, elapsed time.Duration) error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx, attempt, time.Since(start))
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-time.After(retryDelay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
