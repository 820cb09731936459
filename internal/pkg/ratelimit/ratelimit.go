// Package ratelimit throttles operations per key with token buckets.
//
// Keyed keeps buckets in process memory. Redis keeps them in Redis so every
// replica draws from the same budget.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
)

// Limiter is implemented by Keyed and Redis.
type Limiter interface {
	// Allow consumes one token for key and reports whether it was available.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset forgets key so its next call starts with a full bucket.
	Reset(ctx context.Context, key string) error
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed holds one token bucket per key. Buckets refill at r tokens per second
// up to burst.
type Keyed struct {
	mu      sync.Mutex
	buckets map[string]*entry
	limit   rate.Limit
	burst   int
	clock   clock.Clocker
}

// NewKeyed allows burst events per key, refilling one event every interval.
// A non-positive interval disables limiting.
func NewKeyed(interval time.Duration, burst int, clk clock.Clocker) *Keyed {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if burst < 1 {
		burst = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Keyed{
		buckets: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
		clock:   clk,
	}
}

// Allow implements Limiter. It never fails.
func (k *Keyed) Allow(_ context.Context, key string) (bool, error) {
	now := k.clock.Now()

	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

// Reset implements Limiter.
func (k *Keyed) Reset(_ context.Context, key string) error {
	k.mu.Lock()
	delete(k.buckets, key)
	k.mu.Unlock()
	return nil
}

// Sweep drops buckets idle for longer than idle and returns how many were removed.
func (k *Keyed) Sweep(idle time.Duration) int {
	cutoff := k.clock.Now().Add(-idle)

	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	for key, e := range k.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(k.buckets, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done. Cancellation is a
// clean stop and returns nil.
func (k *Keyed) RunSweeper(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			k.Sweep(idle)
		}
	}
}

// Len reports how many keys are tracked.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
