package sim

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/inference-sim/dining-sim/sim/trace"
)

// Default delays match the reference run: 100ms of thinking, 100ms of eating.
const (
	DefaultThinkDelay = 100 * time.Millisecond
	DefaultEatDelay   = 100 * time.Millisecond
)

// Observer receives philosopher, fork, and gate events. Implementations must
// be safe for concurrent use. *trace.SimulationTrace satisfies it.
type Observer interface {
	Observe(ev trace.Event)
}

// DelayConfig groups the simulated phase durations.
type DelayConfig struct {
	Think  time.Duration // think phase (≥0)
	Eat    time.Duration // eat phase (≥0)
	Jitter float64       // fraction in [0,1] by which each delay may vary
	Seed   int64         // seed for jitter draws
}

// TableConfig groups the per-philosopher parameters NewTable applies to every seat.
type TableConfig struct {
	Delays         DelayConfig
	Cycles         int           // think/eat cycles per pass; 0 means 1
	Order          string        // acquisition order name, see ValidOrders; "" means parity
	AcquireTimeout time.Duration // bounded wait per fork; 0 waits without bound
	Clock          clock.Clock   // delay clock; nil means the real clock
	Observer       Observer      // optional event sink
}

// DefaultTableConfig returns the reference configuration: one cycle,
// parity ordering, 100ms delays, real clock.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Delays: DelayConfig{Think: DefaultThinkDelay, Eat: DefaultEatDelay},
		Cycles: 1,
		Order:  "parity",
	}
}

// Validate checks parameter ranges. It does not mutate cfg.
func (c TableConfig) Validate() error {
	if c.Delays.Think < 0 {
		return configErr("think delay", c.Delays.Think, "must be non-negative")
	}
	if c.Delays.Eat < 0 {
		return configErr("eat delay", c.Delays.Eat, "must be non-negative")
	}
	if c.Delays.Jitter < 0 || c.Delays.Jitter > 1 {
		return configErr("jitter", c.Delays.Jitter, "must be within [0, 1]")
	}
	if c.Cycles < 0 {
		return configErr("cycles", c.Cycles, "must be non-negative")
	}
	if c.AcquireTimeout < 0 {
		return configErr("acquire timeout", c.AcquireTimeout, "must be non-negative")
	}
	if !IsValidOrder(c.Order) {
		return configErr("acquisition order", c.Order, "unknown order")
	}
	return nil
}

// withDefaults fills the zero-valued fields that have a default.
func (c TableConfig) withDefaults() TableConfig {
	if c.Cycles == 0 {
		c.Cycles = 1
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}
