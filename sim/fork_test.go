package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFork_AcquireRelease_TracksHolder(t *testing.T) {
	// GIVEN a free fork
	f := newFork(3)
	assert.Equal(t, 3, f.ID())
	assert.Equal(t, -1, f.Holder(), "new fork must be free")

	// WHEN philosopher 5 acquires it
	lease, err := f.Acquire(context.Background(), 5)
	require.NoError(t, err)

	// THEN the holder is 5 until the lease is released
	assert.Equal(t, 5, f.Holder())
	assert.Same(t, f, lease.Fork())
	assert.True(t, lease.Release(), "first release must free the fork")
	assert.Equal(t, -1, f.Holder())
}

func TestLease_Release_IsIdempotent(t *testing.T) {
	// GIVEN a held fork
	f := newFork(0)
	lease, err := f.Acquire(context.Background(), 1)
	require.NoError(t, err)

	// WHEN the lease is released twice
	first := lease.Release()
	second := lease.Release()

	// THEN only the first call releases, and the fork can be taken again
	assert.True(t, first)
	assert.False(t, second)
	again, err := f.AcquireWithin(context.Background(), 2, 50*time.Millisecond)
	require.NoError(t, err, "fork must be acquirable after a double release")
	again.Release()

	var nilLease *Lease
	assert.False(t, nilLease.Release(), "nil lease release is a no-op")
}

func TestFork_Acquire_BlocksUntilReleased(t *testing.T) {
	// GIVEN a fork held by philosopher 0
	f := newFork(0)
	lease, err := f.Acquire(context.Background(), 0)
	require.NoError(t, err)

	// WHEN philosopher 1 tries to acquire it
	acquired := make(chan *Lease)
	go func() {
		l, err := f.Acquire(context.Background(), 1)
		if err == nil {
			acquired <- l
		}
		close(acquired)
	}()

	// THEN it stays blocked while the fork is held
	select {
	case <-acquired:
		t.Fatal("acquire succeeded while the fork was held")
	case <-time.After(50 * time.Millisecond):
	}

	// AND it proceeds once the fork is released
	lease.Release()
	select {
	case l := <-acquired:
		require.NotNil(t, l)
		assert.Equal(t, 1, f.Holder())
		l.Release()
	case <-time.After(time.Second):
		t.Fatal("acquire did not proceed after release")
	}
}

func TestFork_AcquireWithin_TimesOut(t *testing.T) {
	// GIVEN a fork that is never released during the test
	f := newFork(4)
	lease, err := f.Acquire(context.Background(), 0)
	require.NoError(t, err)
	defer lease.Release()

	// WHEN another philosopher waits a bounded time
	start := time.Now()
	l, err := f.AcquireWithin(context.Background(), 1, 30*time.Millisecond)

	// THEN it gets the timeout signal instead of hanging, holding nothing
	require.Error(t, err)
	assert.Nil(t, l)
	assert.ErrorIs(t, err, ErrAcquisitionTimeout)
	assert.NotErrorIs(t, err, context.DeadlineExceeded, "timeout must not leak as a context error")
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, 0, f.Holder())
}

func TestFork_AcquireWithin_ParentCancelIsNotTimeout(t *testing.T) {
	// GIVEN a held fork and an already-cancelled context
	f := newFork(0)
	lease, err := f.Acquire(context.Background(), 0)
	require.NoError(t, err)
	defer lease.Release()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN a bounded acquisition is attempted
	_, err = f.AcquireWithin(ctx, 1, time.Second)

	// THEN the cancellation surfaces, not a timeout
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrAcquisitionTimeout))
}

func TestFork_Acquire_CancelledWhileWaiting_HoldsNothing(t *testing.T) {
	// GIVEN a held fork
	f := newFork(0)
	lease, err := f.Acquire(context.Background(), 0)
	require.NoError(t, err)

	// WHEN a waiter's context is cancelled
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.Acquire(ctx, 1)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	// THEN the waiter returns the cancellation and the original holder is unaffected
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}
	assert.Equal(t, 0, f.Holder())
	lease.Release()
	assert.Equal(t, -1, f.Holder())
}

func TestFork_MutualExclusion_UnderContention(t *testing.T) {
	// GIVEN one fork and many goroutines hammering it
	f := newFork(0)
	const workers, rounds = 16, 200
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	// WHEN every goroutine repeatedly acquires, enters, and releases
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				lease, err := f.Acquire(context.Background(), id)
				if err != nil {
					t.Errorf("acquire: %v", err)
					return
				}
				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
				lease.Release()
			}
		}(w)
	}
	wg.Wait()

	// THEN no two holders were ever inside together
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, -1, f.Holder())
}
