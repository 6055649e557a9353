package sim

import (
	"context"
	"fmt"

	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// AdmissionGate bounds how many philosophers may be admitted at once,
// independent of how many are seated at the table.
//
// Waiters are not served in FIFO order: when a slot frees up, any blocked
// Enter may win it. Callers must not rely on admission order.
type AdmissionGate interface {
	// Enter blocks until a slot is free or ctx is done.
	Enter(ctx context.Context) (*Slot, error)
	Capacity() int
	// Admitted is the number of slots currently held.
	Admitted() int
	// Peak is the highest Admitted value observed so far.
	Peak() int
}

// Slot is one admitted place in a gate. Leave is idempotent and safe on a nil
// Slot, so it can be deferred unconditionally.
type Slot struct {
	leave func()
	left  atomic.Bool
}

// Leave gives the slot back and reports whether this call did so.
func (s *Slot) Leave() bool {
	if s == nil || !s.left.CompareAndSwap(false, true) {
		return false
	}
	s.leave()
	return true
}

// occupancy tracks admitted and peak counts for a gate.
type occupancy struct {
	capacity int
	admitted atomic.Int64
	peak     atomic.Int64
}

func (o *occupancy) enter() {
	n := o.admitted.Inc()
	if n > int64(o.capacity) {
		panic(fmt.Sprintf("broken gate: %d admitted, capacity %d", n, o.capacity))
	}
	for {
		p := o.peak.Load()
		if n <= p || o.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (o *occupancy) leave() {
	if o.admitted.Dec() < 0 {
		panic("broken gate: admitted count below zero")
	}
}

func (o *occupancy) Capacity() int { return o.capacity }
func (o *occupancy) Admitted() int { return int(o.admitted.Load()) }
func (o *occupancy) Peak() int     { return int(o.peak.Load()) }

// SemaphoreGate is a counting-semaphore gate with a fixed capacity.
type SemaphoreGate struct {
	occupancy
	sem *semaphore.Weighted
}

// NewSemaphoreGate creates a gate admitting at most capacity philosophers.
func NewSemaphoreGate(capacity int) (*SemaphoreGate, error) {
	if capacity < 1 {
		return nil, configErr("gate capacity", capacity, "must be at least 1")
	}
	return &SemaphoreGate{
		occupancy: occupancy{capacity: capacity},
		sem:       semaphore.NewWeighted(int64(capacity)),
	}, nil
}

func (g *SemaphoreGate) Enter(ctx context.Context) (*Slot, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("entering admission gate: %w", err)
	}
	// count moves up only after the semaphore is held and down before it is
	// released, so Admitted never exceeds capacity
	g.enter()
	return &Slot{leave: func() {
		g.leave()
		g.sem.Release(1)
	}}, nil
}

// OpenGate admits everyone without blocking. Its capacity is the number of
// philosophers it was sized for, which reproduces an ungated parallel pass.
type OpenGate struct {
	occupancy
}

// NewOpenGate creates a gate sized for the given number of philosophers.
func NewOpenGate(philosophers int) *OpenGate {
	return &OpenGate{occupancy: occupancy{capacity: philosophers}}
}

func (g *OpenGate) Enter(ctx context.Context) (*Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("entering admission gate: %w", err)
	}
	g.enter()
	return &Slot{leave: g.leave}, nil
}

// ValidGatePolicies is the set of recognized admission gate policy names.
var ValidGatePolicies = map[string]bool{"": true, "semaphore": true, "unbounded": true}

// IsValidGatePolicy returns true if name is a recognized gate policy.
func IsValidGatePolicy(name string) bool { return ValidGatePolicies[name] }

// NewAdmissionGate creates a gate by policy name. An empty name defaults to
// "semaphore". For "unbounded", capacity is ignored and the gate is sized for
// philosophers.
func NewAdmissionGate(name string, capacity, philosophers int) (AdmissionGate, error) {
	switch name {
	case "", "semaphore":
		return NewSemaphoreGate(capacity)
	case "unbounded":
		if philosophers < 1 {
			return nil, configErr("philosophers", philosophers, "must be at least 1")
		}
		return NewOpenGate(philosophers), nil
	default:
		return nil, configErr("gate policy", fmt.Sprintf("%q", name), "unknown policy")
	}
}
