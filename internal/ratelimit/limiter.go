// Package ratelimit bounds call frequency into the generative text service
// per (actor, operation) pair: a minimum interval between successive calls
// plus a burst allowance, with a retry-after hint on denial.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	// Allowed reports whether the call may proceed.
	Allowed bool

	// RetryAfter is how long the caller should wait before retrying.
	// Zero when Allowed is true.
	RetryAfter time.Duration
}

// Config holds limiter settings.
type Config struct {
	// MinInterval is the minimum spacing between successive calls for one
	// (actor, operation) pair.
	MinInterval time.Duration

	// Burst is how many calls may proceed back-to-back before the interval
	// applies.
	Burst int

	// IdleEviction is how long an unused entry survives before the sweeper
	// drops it. Bounds memory for churning actor populations.
	IdleEviction time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MinInterval:  3 * time.Second,
		Burst:        3,
		IdleEviction: 3 * time.Minute,
	}
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter throttles calls per (actor, operation) pair.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     Config
	stop    chan struct{}
	// now is replaceable in tests
	now func() time.Time
}

// New creates a Limiter and starts its idle-entry sweeper.
func New(cfg Config) *Limiter {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 3 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleEviction <= 0 {
		cfg.IdleEviction = 3 * time.Minute
	}

	l := &Limiter{
		entries: make(map[string]*entry),
		cfg:     cfg,
		stop:    make(chan struct{}),
		now:     time.Now,
	}

	go l.sweep()

	return l
}

// Check decides whether a call by actor for operation may proceed now.
// Denials carry a retry-after hint derived from the limiter's reservation.
func (l *Limiter) Check(actor, operation string) Decision {
	key := actor + "|" + operation

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{
			limiter: rate.NewLimiter(rate.Every(l.cfg.MinInterval), l.cfg.Burst),
		}
		l.entries[key] = e
	}
	e.lastSeen = l.now()
	l.mu.Unlock()

	reservation := e.limiter.Reserve()
	delay := reservation.Delay()
	if delay > 0 {
		// Not ready yet; hand the token back and tell the caller when to retry.
		reservation.Cancel()
		return Decision{Allowed: false, RetryAfter: delay}
	}

	return Decision{Allowed: true}
}

// Close stops the idle sweeper.
func (l *Limiter) Close() {
	close(l.stop)
}

// sweep drops entries that have been idle longer than the eviction window.
func (l *Limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := l.now().Add(-l.cfg.IdleEviction)
			l.mu.Lock()
			for key, e := range l.entries {
				if e.lastSeen.Before(cutoff) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
