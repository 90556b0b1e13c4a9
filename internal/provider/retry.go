package provider

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// withRetry runs fn up to maxAttempts times, backing off exponentially with
// jitter between attempts. Only rate-limit failures are retried; any other
// error surfaces immediately.
func withRetry(ctx context.Context, name string, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRateLimited(lastErr) || attempt == maxAttempts-1 {
			return lastErr
		}

		wait := time.Duration(1<<attempt)*time.Second + time.Duration(rand.Intn(1000))*time.Millisecond
		log.Printf("[%s] Quota exceeded, retrying in %v (attempt %d/%d)", name, wait.Round(time.Millisecond), attempt+1, maxAttempts)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
