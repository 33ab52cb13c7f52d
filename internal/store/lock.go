package store

import (
	"context"
	"time"
)

// LockStore defines the interface for the persisted advisory lock backing the
// idempotency guard. A lock row carries the resource id, the holder id, and a
// lease expiry; an expired lease is eligible for reclaim by any holder, which
// is what recovers a lock orphaned by a crashed process.
type LockStore interface {
	// TryAcquire attempts to take the lock for resource on behalf of holder,
	// with the given lease duration. The acquire is a single conditional
	// upsert: it succeeds if no row exists or the existing lease has
	// expired. Returns ErrLockHeld when another holder owns a live lease.
	TryAcquire(ctx context.Context, resource, holder string, lease time.Duration) error

	// Renew extends the lease for a lock the holder currently owns.
	// Returns ErrLockHeld if the lock is no longer owned by holder.
	Renew(ctx context.Context, resource, holder string, lease time.Duration) error

	// Release deletes the lock row if it is owned by holder. Releasing a
	// lock that expired and was reclaimed by another holder is a no-op.
	Release(ctx context.Context, resource, holder string) error
}
