package quota

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements per-capability burst smoothing on top of the ledger's
// windowed counters. The ledger decides whether a call fits the window at
// all; the limiter spreads those calls across the window instead of letting
// them all fire in the first second.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the capability's rate limit clears
func (l *Limiter) Wait(ctx context.Context, capability string) error {
	return l.getLimiter(capability).Wait(ctx)
}

// Allow checks if a call is allowed right now without waiting
func (l *Limiter) Allow(capability string) bool {
	return l.getLimiter(capability).Allow()
}

// getLimiter returns the rate limiter for a capability
func (l *Limiter) getLimiter(capability string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[capability]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[capability]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[capability] = limiter

	return limiter
}

// SetCapabilityRate sets a custom rate limit for a specific capability.
// perMinute is the sustained budget; burst allows short spikes above it.
func (l *Limiter) SetCapabilityRate(capability string, perMinute int, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[capability] = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}
