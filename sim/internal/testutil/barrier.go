// Package testutil provides shared test infrastructure for the dining
// simulation. It depends only on sim/trace, so both sim's internal tests and
// the sub-package tests can use it.
package testutil

import (
	"sync"
	"time"

	"github.com/inference-sim/dining-sim/sim/trace"
)

// EventSink is anything that can receive trace events.
type EventSink interface {
	Observe(ev trace.Event)
}

// FirstAcquisitionBarrier holds each philosopher right after its first fork
// acquisition until `parties` distinct philosophers hold a fork at the same
// time, or until the wait elapses. Used to force every philosopher to hold one
// fork at once.
type FirstAcquisitionBarrier struct {
	parties int
	wait    time.Duration
	next    EventSink

	mu      sync.Mutex
	seen    map[int]bool
	holding map[int]bool
	release chan struct{}
	tripped bool
}

// NewFirstAcquisitionBarrier creates a barrier for parties philosophers.
// Events are forwarded to next when it is non-nil.
func NewFirstAcquisitionBarrier(parties int, wait time.Duration, next EventSink) *FirstAcquisitionBarrier {
	return &FirstAcquisitionBarrier{
		parties: parties,
		wait:    wait,
		next:    next,
		seen:    make(map[int]bool),
		holding: make(map[int]bool),
		release: make(chan struct{}),
	}
}

// Observe forwards ev, then blocks if ev is a philosopher's first acquisition.
func (b *FirstAcquisitionBarrier) Observe(ev trace.Event) {
	if b.next != nil {
		b.next.Observe(ev)
	}
	switch ev.Kind {
	case trace.KindForkReleasing:
		b.mu.Lock()
		delete(b.holding, ev.Philosopher)
		b.mu.Unlock()
		return
	case trace.KindForkAcquired:
	default:
		return
	}

	b.mu.Lock()
	if b.seen[ev.Philosopher] {
		b.mu.Unlock()
		return
	}
	b.seen[ev.Philosopher] = true
	b.holding[ev.Philosopher] = true
	if len(b.holding) == b.parties && !b.tripped {
		b.tripped = true
		close(b.release)
	}
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-time.After(b.wait):
	}
}

// Tripped reports whether all parties held a fork at the same time.
func (b *FirstAcquisitionBarrier) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}

// Recorder is a minimal concurrent-safe sink that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []trace.Event
}

func (r *Recorder) Observe(ev trace.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []trace.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trace.Event(nil), r.events...)
}

// States returns the state sequence recorded for one philosopher.
func (r *Recorder) States(philosopher int) []string {
	var out []string
	for _, ev := range r.Events() {
		if ev.Kind == trace.KindState && ev.Philosopher == philosopher {
			out = append(out, ev.State)
		}
	}
	return out
}
