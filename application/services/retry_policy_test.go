package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbui88/pdf-tts/domain"
)

func testPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestRetryPolicy_SucceedsFirstAttempt(t *testing.T) {
	attempts, err := testPolicy(3).Do(context.Background(), func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryPolicy_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	attempts, err := testPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &domain.SynthesisError{Transient: true, Reason: "rate limited"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryPolicy_ExhaustsTransientAttempts(t *testing.T) {
	calls := 0
	attempts, err := testPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.SynthesisError{Transient: true, Reason: "server fault"}
	})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if calls != 3 || attempts != 3 {
		t.Errorf("calls = %d, attempts = %d, want 3 each", calls, attempts)
	}
}

func TestRetryPolicy_PermanentShortCircuits(t *testing.T) {
	calls := 0
	attempts, err := testPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.SynthesisError{Transient: false, Reason: "invalid input"}
	})
	if err == nil {
		t.Fatal("expected the permanent error to propagate")
	}
	if calls != 1 || attempts != 1 {
		t.Errorf("calls = %d, attempts = %d, want 1 each", calls, attempts)
	}
	if domain.IsTransient(err) {
		t.Error("permanent error classified as transient")
	}
}

func TestRetryPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := RetryPolicy{MaxAttempts: 10, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}.
		Do(ctx, func(context.Context) error {
			calls++
			cancel()
			return &domain.SynthesisError{Transient: true, Reason: "timeout"}
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
