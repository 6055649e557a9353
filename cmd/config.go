package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	sim "github.com/inference-sim/dining-sim/sim"
	"github.com/inference-sim/dining-sim/sim/trace"
)

const (
	modeSweep      = "sweep"
	modeSequential = "sequential"
	modeConcurrent = "concurrent"
)

var validModes = map[string]bool{modeSweep: true, modeSequential: true, modeConcurrent: true}

// runOptions is the fully resolved configuration of one CLI run.
type runOptions struct {
	Philosophers int
	Capacities   []int
	GatePolicy   string
	Scope        sim.GateScope
	Mode         string
	Table        sim.TableConfig
	PassTimeout  time.Duration
	Output       string
	TraceLevel   string
}

// resolveRunOptions merges the YAML run config (if --config is set) with the
// flag values. A flag set explicitly on the command line wins over YAML; YAML
// wins over flag defaults.
func resolveRunOptions(flags *pflag.FlagSet) (runOptions, error) {
	opts := runOptions{
		Philosophers: philosophers,
		Capacities:   append([]int(nil), capacities...),
		GatePolicy:   gatePolicy,
		Scope:        sim.GateScope(gateScope),
		Mode:         mode,
		PassTimeout:  passTimeout,
		Output:       outputPath,
		TraceLevel:   traceLevel,
		Table: sim.TableConfig{
			Delays: sim.DelayConfig{
				Think:  thinkDelay,
				Eat:    eatDelay,
				Jitter: jitter,
				Seed:   seed,
			},
			Cycles:         cycles,
			Order:          order,
			AcquireTimeout: acquireTimeout,
		},
	}

	if configPath != "" {
		bundle, err := sim.LoadRunBundle(configPath)
		if err != nil {
			return opts, err
		}
		if err := bundle.Validate(); err != nil {
			return opts, fmt.Errorf("%s: %w", configPath, err)
		}
		applyBundle(&opts, bundle, flags)
	}

	return opts, opts.validate()
}

// applyBundle copies every field set in b into opts unless the matching flag
// was given explicitly.
func applyBundle(opts *runOptions, b *sim.RunBundle, flags *pflag.FlagSet) {
	unset := func(name string) bool { return !flags.Changed(name) }

	if b.Philosophers != 0 && unset("philosophers") {
		opts.Philosophers = b.Philosophers
	}
	if len(b.Capacities) > 0 && unset("capacity") {
		opts.Capacities = append([]int(nil), b.Capacities...)
	}
	if b.Gate.Policy != "" && unset("gate") {
		opts.GatePolicy = b.Gate.Policy
	}
	if b.Gate.Scope != "" && unset("gate-scope") {
		opts.Scope = sim.GateScope(b.Gate.Scope)
	}
	if b.Order != "" && unset("order") {
		opts.Table.Order = b.Order
	}
	if b.Cycles != nil && unset("cycles") {
		opts.Table.Cycles = *b.Cycles
	}
	if b.Delays.Think != nil && unset("think") {
		opts.Table.Delays.Think = *b.Delays.Think
	}
	if b.Delays.Eat != nil && unset("eat") {
		opts.Table.Delays.Eat = *b.Delays.Eat
	}
	if b.Delays.Jitter != nil && unset("jitter") {
		opts.Table.Delays.Jitter = *b.Delays.Jitter
	}
	if b.Delays.Seed != nil && unset("seed") {
		opts.Table.Delays.Seed = *b.Delays.Seed
	}
	if b.AcquireTimeout != nil && unset("acquire-timeout") {
		opts.Table.AcquireTimeout = *b.AcquireTimeout
	}
	if b.PassTimeout != nil && unset("timeout") {
		opts.PassTimeout = *b.PassTimeout
	}
	if b.Output != "" && unset("output") {
		opts.Output = b.Output
	}
}

// validate fails fast on anything NewTable or NewAdmissionGate would reject,
// before a single fork is created.
func (o runOptions) validate() error {
	if o.Philosophers < 2 {
		return fmt.Errorf("--philosophers must be at least 2, got %d", o.Philosophers)
	}
	if !validModes[o.Mode] {
		return fmt.Errorf("unknown --mode %q", o.Mode)
	}
	if o.Mode != modeSequential && len(o.Capacities) == 0 {
		return fmt.Errorf("--capacity needs at least one value for mode %q", o.Mode)
	}
	for _, c := range o.Capacities {
		if c < 1 {
			return fmt.Errorf("--capacity values must be at least 1, got %d", c)
		}
	}
	if !sim.IsValidGatePolicy(o.GatePolicy) {
		return fmt.Errorf("unknown --gate %q", o.GatePolicy)
	}
	if !sim.IsValidGateScope(string(o.Scope)) {
		return fmt.Errorf("unknown --gate-scope %q", o.Scope)
	}
	if !trace.IsValidTraceLevel(o.TraceLevel) {
		return fmt.Errorf("unknown --trace %q", o.TraceLevel)
	}
	if o.PassTimeout < 0 {
		return fmt.Errorf("--timeout must be non-negative, got %v", o.PassTimeout)
	}
	if o.Table.Cycles < 1 {
		return fmt.Errorf("--cycles must be at least 1, got %d", o.Table.Cycles)
	}
	return o.Table.Validate()
}
