// Package ratelimit provides per-user command cooldowns using a token
// bucket per user. Buckets for idle users are swept periodically so the
// map does not grow with every user the bot has ever seen.
package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	// cleanupInterval is how often idle buckets are swept.
	cleanupInterval = time.Minute

	// maxIdle is how long a user's bucket survives without activity.
	maxIdle = 10 * time.Minute
)

// CommandLimiter manages per-user rate limiting for command invocations.
// Each user gets an independent token bucket.
type CommandLimiter struct {
	mu    sync.RWMutex
	users map[string]*userBucket
	limit rate.Limit
	burst int

	done     chan struct{}
	stopOnce sync.Once
}

type userBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// New creates a command limiter allowing rps invocations per second with
// the given burst, per user.
func New(rps float64, burst int) *CommandLimiter {
	cl := &CommandLimiter{
		users: make(map[string]*userBucket),
		limit: rate.Limit(rps),
		burst: burst,
		done:  make(chan struct{}),
	}

	go cl.cleanup()

	return cl
}

// Allow reports whether the user may invoke a command now. When the user
// is on cooldown it returns false and how long until the next token,
// without consuming one.
func (cl *CommandLimiter) Allow(userID string) (bool, time.Duration) {
	bucket := cl.getBucket(userID)
	bucket.lastSeen.Store(time.Now().UnixNano())

	r := bucket.limiter.Reserve()
	if !r.OK() {
		return false, 0
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return false, delay
	}
	return true, 0
}

// getBucket returns the bucket for a user, creating one if needed.
func (cl *CommandLimiter) getBucket(userID string) *userBucket {
	// Fast path: read lock
	cl.mu.RLock()
	bucket, exists := cl.users[userID]
	cl.mu.RUnlock()

	if exists {
		return bucket
	}

	// Slow path: write lock to create
	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists = cl.users[userID]; exists {
		return bucket
	}

	bucket = &userBucket{limiter: rate.NewLimiter(cl.limit, cl.burst)}
	cl.users[userID] = bucket
	return bucket
}

// Stop shuts down the cleanup goroutine.
func (cl *CommandLimiter) Stop() {
	cl.stopOnce.Do(func() {
		close(cl.done)
	})
}

func (cl *CommandLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.sweep(time.Now())
		}
	}
}

// sweep drops buckets that have been idle longer than maxIdle.
func (cl *CommandLimiter) sweep(now time.Time) {
	cutoff := now.Add(-maxIdle).UnixNano()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	for id, bucket := range cl.users {
		if bucket.lastSeen.Load() < cutoff {
			delete(cl.users, id)
		}
	}
}
