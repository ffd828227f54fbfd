package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// Retry calls fn up to maxAttempts times with exponential backoff starting
// at baseDelay, plus up to half a step of jitter so concurrent gather
// requests against the same exchange endpoint do not retry in lockstep.
// It returns nil on the first successful call, or the last error if all
// attempts fail. The function respects context cancellation between retries.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Don't sleep after the last failed attempt.
		if attempt < maxAttempts-1 {
			jitter := time.Duration(rand.Int64N(int64(delay)/2 + 1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay + jitter):
			}
			delay *= 2
		}
	}

	return err
}
