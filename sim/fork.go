package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// noHolder is the holder value of a free fork.
const noHolder = -1

// Fork is a mutually-exclusive resource shared by the two philosophers seated
// on either side of it. At most one philosopher holds a fork at any instant.
type Fork struct {
	id     int
	sem    *semaphore.Weighted
	holder atomic.Int64
}

func newFork(id int) *Fork {
	f := &Fork{id: id, sem: semaphore.NewWeighted(1)}
	f.holder.Store(noHolder)
	return f
}

// ID returns the fork's index in the ring.
func (f *Fork) ID() int { return f.id }

// Holder returns the id of the philosopher holding the fork, or -1 when free.
func (f *Fork) Holder() int { return int(f.holder.Load()) }

// Acquire blocks until the fork is free or ctx is done. On success the fork is
// held by holder until the returned Lease is released.
func (f *Fork) Acquire(ctx context.Context, holder int) (*Lease, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("philosopher %d acquiring fork %d: %w", holder, f.id, err)
	}
	if !f.holder.CompareAndSwap(noHolder, int64(holder)) {
		panic(fmt.Sprintf("fork %d held twice: holder %d, acquirer %d", f.id, f.holder.Load(), holder))
	}
	return &Lease{fork: f, holder: holder}, nil
}

// AcquireWithin is Acquire with a bounded wait. When the fork is still held
// after timeout it returns an error wrapping ErrAcquisitionTimeout. A
// non-positive timeout waits without bound.
func (f *Fork) AcquireWithin(ctx context.Context, holder int, timeout time.Duration) (*Lease, error) {
	if timeout <= 0 {
		return f.Acquire(ctx, holder)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lease, err := f.Acquire(tctx, holder)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("philosopher %d waited %v for fork %d: %w", holder, timeout, f.id, ErrAcquisitionTimeout)
	}
	return lease, err
}

// Lease is the scoped ownership of one fork. Release is idempotent, so a
// deferred Release after an explicit one is harmless.
type Lease struct {
	fork     *Fork
	holder   int
	released atomic.Bool
}

// Fork returns the leased fork.
func (l *Lease) Fork() *Fork { return l.fork }

// Release frees the fork and wakes at most one waiting acquirer. It reports
// whether this call performed the release. Safe on a nil Lease.
func (l *Lease) Release() bool {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return false
	}
	if !l.fork.holder.CompareAndSwap(int64(l.holder), noHolder) {
		panic(fmt.Sprintf("fork %d released by %d but held by %d", l.fork.id, l.holder, l.fork.holder.Load()))
	}
	l.fork.sem.Release(1)
	return true
}
