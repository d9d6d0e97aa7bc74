package ratelimit

import (
	"testing"
	"time"
)

func TestCommandLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		userID   string
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial invocations",
			rps:      1,
			burst:    3,
			userID:   "111",
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			userID:   "111",
			calls:    5,
			wantPass: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := New(tt.rps, tt.burst)
			defer cl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if ok, _ := cl.Allow(tt.userID); ok {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestCommandLimiter_RetryAfter(t *testing.T) {
	cl := New(1, 1) // 1 per second, burst of 1
	defer cl.Stop()

	if ok, _ := cl.Allow("111"); !ok {
		t.Fatal("first invocation should be allowed")
	}

	ok, retryAfter := cl.Allow("111")
	if ok {
		t.Fatal("second invocation should be on cooldown")
	}
	if retryAfter <= 0 || retryAfter > time.Second {
		t.Errorf("retryAfter = %v, want in (0s, 1s]", retryAfter)
	}

	// The rejected invocation must not have consumed a token.
	time.Sleep(retryAfter + 20*time.Millisecond)
	if ok, _ := cl.Allow("111"); !ok {
		t.Error("invocation after cooldown should be allowed")
	}
}

func TestCommandLimiter_IndependentUsers(t *testing.T) {
	cl := New(1, 1)
	defer cl.Stop()

	cl.Allow("111")
	if ok, _ := cl.Allow("111"); ok {
		t.Error("user 111 should be exhausted")
	}

	if ok, _ := cl.Allow("222"); !ok {
		t.Error("user 222 should be independent and allowed")
	}
}

func TestCommandLimiter_SweepDropsIdleBuckets(t *testing.T) {
	cl := New(1, 1)
	defer cl.Stop()

	cl.Allow("111")
	cl.Allow("222")

	cl.mu.RLock()
	before := len(cl.users)
	cl.mu.RUnlock()
	if before != 2 {
		t.Fatalf("expected 2 buckets, got %d", before)
	}

	cl.sweep(time.Now().Add(maxIdle + time.Minute))

	cl.mu.RLock()
	after := len(cl.users)
	cl.mu.RUnlock()
	if after != 0 {
		t.Errorf("expected idle buckets to be swept, %d remain", after)
	}
}

func TestCommandLimiter_StopIsIdempotent(t *testing.T) {
	cl := New(1, 1)
	cl.Stop()
	cl.Stop()
}
