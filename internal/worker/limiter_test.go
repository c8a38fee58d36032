package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx); err != nil {
		t.Errorf("second wait failed: %v", err)
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 2) // 1 rps, burst 2

	if !limiter.Allow() {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow() {
		t.Error("second request should be allowed (burst 2)")
	}
	if limiter.Allow() {
		t.Error("third request should be rate limited")
	}
}

func TestLimiter_Wait_ContextCancelled(t *testing.T) {
	limiter := NewLimiter(0.1, 1) // one request per 10 seconds
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Drain the burst, then the next wait must fail via the context
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if err := limiter.Wait(ctx); err == nil {
		t.Error("expected context error on rate-limited wait")
	}
}

func TestLimiter_DefaultBurst(t *testing.T) {
	limiter := NewLimiter(10, -1)

	// Negative burst falls back to the default of 5
	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	if allowed != 5 {
		t.Errorf("allowed %d immediate requests, want 5", allowed)
	}
}
