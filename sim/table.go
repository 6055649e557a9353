package sim

import (
	"github.com/sirupsen/logrus"
)

// Table is the fixed ring of forks and philosophers. Philosopher i uses
// forks[i] as its left fork and forks[(i+1) mod n] as its right fork, so every
// fork is shared by exactly its two neighbors. A Table is not mutated after
// construction.
type Table struct {
	forks        []*Fork
	philosophers []*Philosopher
	cfg          TableConfig
}

// NewTable seats count philosophers around count forks.
// Returns a *ConfigurationError, before creating anything, when count < 2 or
// cfg is invalid.
func NewTable(count int, cfg TableConfig) (*Table, error) {
	if count < 2 {
		return nil, configErr("philosopher count", count, "a table needs at least 2 seats")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	order, err := NewAcquisitionOrder(cfg.Order)
	if err != nil {
		return nil, err
	}

	forks := make([]*Fork, count)
	for i := range forks {
		forks[i] = newFork(i)
	}

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Delays.Seed))
	philosophers := make([]*Philosopher, count)
	for i := range philosophers {
		philosophers[i] = &Philosopher{
			id:             i,
			left:           forks[i],
			right:          forks[(i+1)%count],
			order:          order,
			think:          cfg.Delays.Think,
			eat:            cfg.Delays.Eat,
			jitter:         cfg.Delays.Jitter,
			rng:            rng.ForSubsystem(SubsystemPhilosopher(i)),
			cycles:         cfg.Cycles,
			acquireTimeout: cfg.AcquireTimeout,
			clock:          cfg.Clock,
			observer:       cfg.Observer,
		}
	}

	logrus.Debugf("table ready: %d philosophers, order=%s, cycles=%d", count, order.Name(), cfg.Cycles)
	return &Table{forks: forks, philosophers: philosophers, cfg: cfg}, nil
}

// Len returns the number of seats.
func (t *Table) Len() int { return len(t.philosophers) }

// Philosophers returns the philosophers in seat order.
func (t *Table) Philosophers() []*Philosopher {
	return append([]*Philosopher(nil), t.philosophers...)
}

// Forks returns the forks in ring order.
func (t *Table) Forks() []*Fork {
	return append([]*Fork(nil), t.forks...)
}

// Philosopher returns the philosopher at seat i.
func (t *Table) Philosopher(i int) *Philosopher { return t.philosophers[i] }

// Fork returns the fork at ring index i.
func (t *Table) Fork(i int) *Fork { return t.forks[i] }

// Config returns the configuration the table was built with, defaults applied.
func (t *Table) Config() TableConfig { return t.cfg }

// Meals returns the total meals eaten at the table.
func (t *Table) Meals() int {
	total := 0
	for _, p := range t.philosophers {
		total += p.Meals()
	}
	return total
}

// HeldForks returns the IDs of forks currently held by anyone.
func (t *Table) HeldForks() []int {
	var held []int
	for _, f := range t.forks {
		if f.Holder() != noHolder {
			held = append(held, f.ID())
		}
	}
	return held
}
