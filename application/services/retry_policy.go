package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/tbui88/pdf-tts/domain"
)

// RetryPolicy is the shared retry contract for external voice-synthesis
// calls: exponential backoff with jitter for transient failures, bounded
// by MaxAttempts, and immediate propagation of permanent failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Do runs call until it succeeds, fails permanently, exhausts the attempt
// budget, or the context is cancelled. It returns the number of attempts
// actually made.
func (p RetryPolicy) Do(ctx context.Context, call func(ctx context.Context) error) (int, error) {
	attempts := 0
	for {
		attempts++
		err := call(ctx)
		if err == nil {
			return attempts, nil
		}
		if !domain.IsTransient(err) || attempts >= p.MaxAttempts {
			return attempts, err
		}

		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(p.backoff(attempts)):
		}
	}
}

// backoff doubles the base delay per attempt and adds up to 25% jitter so
// concurrent retries against a rate-limited service do not stampede.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt-1)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}
