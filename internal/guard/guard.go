// Package guard provides the idempotency guard that prevents two concurrent
// triggers from duplicating the same expensive AI analysis. It is backed by a
// persisted advisory lock (resource id, holder id, lease expiry), so the
// guarantee holds across worker processes: an expired lease is eligible for
// reclaim, and the lease is renewed while guarded work is in flight.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/store"
)

// ErrAlreadyRunning is returned when the guarded resource is being analyzed
// by another in-flight trigger. Callers should no-op rather than fail.
var ErrAlreadyRunning = errors.New("analysis already in progress for resource")

// DefaultLease is the lock lease used when no explicit lease is configured.
const DefaultLease = 60 * time.Second

// Guard coordinates exclusive execution of expensive analyses per resource.
type Guard struct {
	locks  store.LockStore
	lease  time.Duration
	logger *slog.Logger
}

// New creates a Guard backed by the given lock store.
func New(locks store.LockStore, lease time.Duration, logger *slog.Logger) (*Guard, error) {
	if locks == nil {
		return nil, errors.New("lock store cannot be nil")
	}
	if lease <= 0 {
		lease = DefaultLease
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Guard{
		locks:  locks,
		lease:  lease,
		logger: logger.With("component", "idempotency_guard"),
	}, nil
}

// Lease represents a held guard on one resource. Release must be called on
// every exit path of the guarded operation.
type Lease struct {
	guard    *Guard
	resource string
	holder   string
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

// TryAcquire attempts to take the guard for resource. On success it returns a
// Lease whose background renewal keeps the lock alive while work runs; on
// contention it returns ErrAlreadyRunning.
//
// Acquiring the guard closes only the concurrency window. Before starting the
// guarded work, callers must re-read authoritative persisted state and bail
// out if a result already exists.
func (g *Guard) TryAcquire(ctx context.Context, resource string) (*Lease, error) {
	if resource == "" {
		return nil, errors.New("resource cannot be empty")
	}

	// Each lease gets its own holder identity so that two acquisitions from
	// the same process contend the same way cross-process ones do.
	holder := uuid.NewString()

	err := g.locks.TryAcquire(ctx, resource, holder, g.lease)
	if err != nil {
		if errors.Is(err, store.ErrLockHeld) {
			g.logger.Debug("guard contended", "resource", resource)
			return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, resource)
		}
		return nil, fmt.Errorf("failed to acquire guard for %s: %w", resource, err)
	}

	renewCtx, cancel := context.WithCancel(context.Background())
	lease := &Lease{
		guard:    g,
		resource: resource,
		holder:   holder,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go lease.renewLoop(renewCtx)

	g.logger.Debug("guard acquired", "resource", resource, "lease", g.lease)
	return lease, nil
}

// Do runs fn under the guard for resource, releasing on every exit path
// including panics. Returns ErrAlreadyRunning without invoking fn when the
// guard is contended.
func (g *Guard) Do(ctx context.Context, resource string, fn func(ctx context.Context) error) error {
	lease, err := g.TryAcquire(ctx, resource)
	if err != nil {
		return err
	}
	defer lease.Release(ctx)

	return fn(ctx)
}

// Release stops lease renewal and deletes the lock row. Safe to call more
// than once; only the first call has effect.
func (l *Lease) Release(ctx context.Context) {
	l.once.Do(func() {
		l.cancel()
		<-l.done

		if err := l.guard.locks.Release(ctx, l.resource, l.holder); err != nil {
			l.guard.logger.Warn("failed to release guard",
				"resource", l.resource,
				"error", err)
			return
		}
		l.guard.logger.Debug("guard released", "resource", l.resource)
	})
}

// renewLoop extends the lease at half-lease intervals until released. A lost
// lock (reclaimed after expiry) stops renewal; the current work finishes but
// a competing trigger may run, and the authoritative-state re-check plus the
// store's unique constraints keep the result single.
func (l *Lease) renewLoop(ctx context.Context) {
	defer close(l.done)

	interval := l.guard.lease / 2
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := l.guard.locks.Renew(ctx, l.resource, l.holder, l.guard.lease)
			if err != nil {
				if errors.Is(err, store.ErrLockHeld) {
					l.guard.logger.Warn("guard lease lost, stopping renewal",
						"resource", l.resource)
					return
				}
				l.guard.logger.Warn("guard lease renewal failed",
					"resource", l.resource,
					"error", err)
			}
		}
	}
}

// ResourceKey builds the canonical guard key for an analysis over a set of
// identifying parts, e.g. ResourceKey("review-responses", studentID,
// activityID, nodeID).
func ResourceKey(operation string, parts ...string) string {
	key := operation
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
