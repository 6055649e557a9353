package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/dining-sim/sim/trace"
)

// GateScope selects which part of a philosopher's cycle holds a gate slot.
type GateScope string

const (
	// ScopeRunning holds the slot from before thinking until after eating.
	ScopeRunning GateScope = "running"
	// ScopeEating holds the slot only around fork acquisition and eating.
	ScopeEating GateScope = "eating"
)

// ValidGateScopes is the set of recognized gate scope names.
var ValidGateScopes = map[string]bool{"": true, string(ScopeRunning): true, string(ScopeEating): true}

// IsValidGateScope returns true if name is a recognized gate scope.
func IsValidGateScope(name string) bool { return ValidGateScopes[name] }

// OrchestratorConfig groups pass-level options.
type OrchestratorConfig struct {
	Clock clock.Clock // pass timing; nil means the table's clock
	Scope GateScope   // "" means ScopeRunning
}

// Orchestrator drives full passes over a table.
type Orchestrator struct {
	table    *Table
	clock    clock.Clock
	scope    GateScope
	observer Observer
}

// NewOrchestrator creates an orchestrator for table.
func NewOrchestrator(table *Table, cfg OrchestratorConfig) (*Orchestrator, error) {
	if table == nil {
		return nil, configErr("table", nil, "must not be nil")
	}
	if !IsValidGateScope(string(cfg.Scope)) {
		return nil, configErr("gate scope", cfg.Scope, "unknown scope")
	}
	if cfg.Scope == "" {
		cfg.Scope = ScopeRunning
	}
	if cfg.Clock == nil {
		cfg.Clock = table.cfg.Clock
	}
	return &Orchestrator{
		table:    table,
		clock:    cfg.Clock,
		scope:    cfg.Scope,
		observer: table.cfg.Observer,
	}, nil
}

// Table returns the table this orchestrator drives.
func (o *Orchestrator) Table() *Table { return o.table }

// RunSequential runs every philosopher's cycles to completion, one after the
// other in seat order. No gate is involved: program order alone keeps a
// single philosopher active. On failure the partial result is returned with
// the error; a cancelled ctx yields a *CancellationError.
func (o *Orchestrator) RunSequential(ctx context.Context) (PassResult, error) {
	start := o.clock.Now()
	mealsBefore := o.table.Meals()
	logrus.Infof("starting sequential pass: %d philosophers", o.table.Len())

	for i, p := range o.table.philosophers {
		if err := p.Run(ctx); err != nil {
			res := o.result(ModeSequential, 1, "", 1, start, mealsBefore)
			if ctx.Err() != nil {
				return res, &CancellationError{Mode: ModeSequential, Launched: i + 1, Completed: i, Err: err}
			}
			return res, err
		}
	}

	res := o.result(ModeSequential, 1, "", 1, start, mealsBefore)
	logrus.Infof("sequential pass completed in %v", res.Elapsed)
	return res, nil
}

// RunConcurrent runs every philosopher on its own goroutine, bounded by gate.
//
// With ScopeRunning, admission is requested on the calling goroutine in seat
// order before each philosopher is launched, so launch order is deterministic
// while completion order is not; the philosopher leaves the gate when its
// goroutine exits. With ScopeEating, all philosophers launch at once and each
// enters the gate around its own eat phases.
//
// Errors from all philosophers are aggregated; the first failure cancels the
// rest. RunConcurrent returns only after every launched goroutine has exited,
// so no fork or slot is held when it returns.
func (o *Orchestrator) RunConcurrent(ctx context.Context, gate AdmissionGate) (PassResult, error) {
	if gate == nil {
		return PassResult{}, configErr("admission gate", nil, "must not be nil")
	}
	start := o.clock.Now()
	mealsBefore := o.table.Meals()
	logrus.Infof("starting concurrent pass: %d philosophers, capacity %d, scope %s",
		o.table.Len(), gate.Capacity(), o.scope)

	g, gctx := errgroup.WithContext(ctx)
	var (
		mu        sync.Mutex
		errs      error
		launched  int
		completed atomic.Int64
	)
	appendErr := func(err error) {
		mu.Lock()
		errs = multierr.Append(errs, err)
		mu.Unlock()
	}

	var eatGate AdmissionGate
	if o.scope == ScopeEating {
		eatGate = gate
	}

	for _, p := range o.table.philosophers {
		var slot *Slot
		if o.scope == ScopeRunning {
			s, err := gate.Enter(gctx)
			if err != nil {
				appendErr(fmt.Errorf("admitting philosopher %d: %w", p.ID(), err))
				break
			}
			o.emit(p.ID(), trace.KindGateEntered)
			slot = s
		}
		launched++
		p := p // per-iteration copy; go directive is 1.21 (pre-loopvar semantics)
		g.Go(func() error {
			defer o.leave(p.ID(), slot)
			if err := p.run(gctx, eatGate); err != nil {
				appendErr(err)
				return err
			}
			completed.Inc()
			return nil
		})
	}
	_ = g.Wait()

	res := o.result(ModeConcurrent, gate.Capacity(), o.scope, gate.Peak(), start, mealsBefore)
	if errs == nil {
		logrus.Infof("concurrent pass completed in %v (peak admitted %d)", res.Elapsed, res.PeakAdmitted)
		return res, nil
	}
	if ctx.Err() != nil {
		return res, &CancellationError{
			Mode:      ModeConcurrent,
			Launched:  launched,
			Completed: int(completed.Load()),
			Err:       errs,
		}
	}
	return res, errs
}

// Sweep runs a sequential baseline pass and then one concurrent pass per
// capacity, each with a fresh gate of the named policy. It stops at the first
// failing pass and returns the results gathered so far.
func (o *Orchestrator) Sweep(ctx context.Context, policy string, capacities []int) ([]PassResult, error) {
	gates := make([]AdmissionGate, len(capacities))
	for i, c := range capacities {
		gate, err := NewAdmissionGate(policy, c, o.table.Len())
		if err != nil {
			return nil, err
		}
		gates[i] = gate
	}

	results := make([]PassResult, 0, len(capacities)+1)
	res, err := o.RunSequential(ctx)
	if err != nil {
		return results, err
	}
	results = append(results, res)

	for _, gate := range gates {
		res, err := o.RunConcurrent(ctx, gate)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (o *Orchestrator) leave(id int, slot *Slot) {
	if slot == nil {
		return
	}
	o.emit(id, trace.KindGateLeaving)
	slot.Leave()
}

func (o *Orchestrator) emit(id int, kind trace.Kind) {
	if o.observer == nil {
		return
	}
	o.observer.Observe(trace.Event{Philosopher: id, Kind: kind, Fork: trace.NoFork, At: o.clock.Now()})
}

func (o *Orchestrator) result(mode Mode, capacity int, scope GateScope, peak int, start time.Time, mealsBefore int) PassResult {
	return PassResult{
		Mode:         mode,
		Philosophers: o.table.Len(),
		Forks:        len(o.table.forks),
		Capacity:     capacity,
		GateScope:    scope,
		Cycles:       o.table.cfg.Cycles,
		Meals:        o.table.Meals() - mealsBefore,
		PeakAdmitted: peak,
		StartedAt:    start,
		Elapsed:      o.clock.Since(start),
	}
}
