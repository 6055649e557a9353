package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/inference-sim/dining-sim/sim/trace"
)

// State is a philosopher's position in its think/eat cycle.
type State int32

const (
	Idle State = iota
	Thinking
	AcquiringFirstFork
	AcquiringSecondFork
	Eating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Thinking:
		return "thinking"
	case AcquiringFirstFork:
		return "acquiring_first_fork"
	case AcquiringSecondFork:
		return "acquiring_second_fork"
	case Eating:
		return trace.StateEating
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Philosopher thinks, then eats with the two forks on either side of it.
// A philosopher runs on one goroutine at a time; its methods must not be
// called concurrently with each other.
type Philosopher struct {
	id          int
	left, right *Fork
	order       AcquisitionOrder

	think, eat     time.Duration
	jitter         float64
	rng            *rand.Rand
	cycles         int
	acquireTimeout time.Duration
	clock          clock.Clock
	observer       Observer

	state atomic.Int32
	meals atomic.Int64
}

// ID returns the philosopher's seat index.
func (p *Philosopher) ID() int { return p.id }

// Left returns the fork at the philosopher's own seat index.
func (p *Philosopher) Left() *Fork { return p.left }

// Right returns the fork shared with the next seat.
func (p *Philosopher) Right() *Fork { return p.right }

// State returns the current phase. Safe to call from any goroutine.
func (p *Philosopher) State() State { return State(p.state.Load()) }

// Meals returns how many eat phases completed since the table was built.
func (p *Philosopher) Meals() int { return int(p.meals.Load()) }

// Think waits out the think delay without touching shared state.
func (p *Philosopher) Think(ctx context.Context) error {
	p.setState(Thinking)
	logrus.Debugf("philosopher %d is thinking", p.id)
	if err := sleep(ctx, p.clock, jittered(p.rng, p.think, p.jitter)); err != nil {
		p.setState(Idle)
		return fmt.Errorf("philosopher %d thinking: %w", p.id, err)
	}
	return nil
}

// Eat takes both forks in the configured order, eats, and puts them down.
// Forks are released on every return path, including cancellation while
// waiting for the second fork or while eating.
func (p *Philosopher) Eat(ctx context.Context) error {
	return p.eatWithin(ctx, nil)
}

// ThinkAndEat runs one think/eat cycle.
func (p *Philosopher) ThinkAndEat(ctx context.Context) error {
	return p.cycle(ctx, nil)
}

// Run runs the configured number of think/eat cycles.
func (p *Philosopher) Run(ctx context.Context) error {
	return p.run(ctx, nil)
}

// run repeats cycle; a non-nil gate is entered around each eat phase.
func (p *Philosopher) run(ctx context.Context, gate AdmissionGate) error {
	for i := 0; i < p.cycles; i++ {
		if err := p.cycle(ctx, gate); err != nil {
			return err
		}
	}
	return nil
}

func (p *Philosopher) cycle(ctx context.Context, gate AdmissionGate) error {
	if err := p.Think(ctx); err != nil {
		return err
	}
	return p.eatWithin(ctx, gate)
}

func (p *Philosopher) eatWithin(ctx context.Context, gate AdmissionGate) error {
	defer p.setState(Idle)

	if gate != nil {
		slot, err := gate.Enter(ctx)
		if err != nil {
			return fmt.Errorf("philosopher %d: %w", p.id, err)
		}
		p.emit(trace.KindGateEntered, trace.NoFork)
		defer func() {
			p.emit(trace.KindGateLeaving, trace.NoFork)
			slot.Leave()
		}()
	}

	logrus.Debugf("philosopher %d is trying to eat", p.id)
	first, second := p.order.Forks(p.id, p.left, p.right)

	p.setState(AcquiringFirstFork)
	firstLease, err := p.acquire(ctx, first)
	if err != nil {
		return err
	}
	defer p.release(firstLease)

	p.setState(AcquiringSecondFork)
	secondLease, err := p.acquire(ctx, second)
	if err != nil {
		return err
	}
	defer p.release(secondLease)

	p.setState(Eating)
	logrus.Debugf("philosopher %d is eating", p.id)
	if err := sleep(ctx, p.clock, jittered(p.rng, p.eat, p.jitter)); err != nil {
		return fmt.Errorf("philosopher %d eating: %w", p.id, err)
	}
	p.meals.Inc()
	logrus.Debugf("philosopher %d has finished eating", p.id)
	return nil
}

func (p *Philosopher) acquire(ctx context.Context, f *Fork) (*Lease, error) {
	lease, err := f.AcquireWithin(ctx, p.id, p.acquireTimeout)
	if err != nil {
		if errors.Is(err, ErrAcquisitionTimeout) {
			logrus.Warnf("philosopher %d gave up on fork %d: %v", p.id, f.ID(), err)
		}
		return nil, err
	}
	p.emit(trace.KindForkAcquired, f.ID())
	return lease, nil
}

func (p *Philosopher) release(l *Lease) {
	p.emit(trace.KindForkReleasing, l.Fork().ID())
	l.Release()
}

func (p *Philosopher) setState(s State) {
	if State(p.state.Swap(int32(s))) == s {
		return
	}
	if p.observer != nil {
		p.observer.Observe(trace.Event{
			Philosopher: p.id,
			Kind:        trace.KindState,
			Fork:        trace.NoFork,
			State:       s.String(),
			At:          p.clock.Now(),
		})
	}
}

func (p *Philosopher) emit(kind trace.Kind, fork int) {
	if p.observer == nil {
		return
	}
	p.observer.Observe(trace.Event{
		Philosopher: p.id,
		Kind:        kind,
		Fork:        fork,
		At:          p.clock.Now(),
	})
}
