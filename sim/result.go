package sim

import (
	"fmt"
	"time"
)

// Mode selects how a pass drives the philosophers.
type Mode string

const (
	// ModeSequential runs philosophers one at a time in seat order.
	ModeSequential Mode = "sequential"
	// ModeConcurrent runs every philosopher on its own goroutine under a gate.
	ModeConcurrent Mode = "concurrent"
)

// PassResult is the read-only record of one pass.
type PassResult struct {
	Mode         Mode
	Philosophers int
	Forks        int
	Capacity     int       // gate capacity; 1 for sequential passes
	GateScope    GateScope // empty for sequential passes
	Cycles       int
	Meals        int // meals eaten during this pass
	PeakAdmitted int // highest occupancy of the pass's gate since it was created
	StartedAt    time.Time
	Elapsed      time.Duration
}

// String renders a one-line summary of the pass.
func (r PassResult) String() string {
	return fmt.Sprintf("%s pass: %d philosophers, capacity %d, %d meals in %v",
		r.Mode, r.Philosophers, r.Capacity, r.Meals, r.Elapsed)
}

// Print displays a pass summary in the same layout for every mode.
func (r PassResult) Print() {
	fmt.Printf("=== %s pass ===\n", r.Mode)
	fmt.Printf("Philosophers         : %d\n", r.Philosophers)
	fmt.Printf("Gate capacity        : %d\n", r.Capacity)
	if r.GateScope != "" {
		fmt.Printf("Gate scope           : %s\n", r.GateScope)
	}
	fmt.Printf("Meals                : %d\n", r.Meals)
	fmt.Printf("Peak admitted        : %d\n", r.PeakAdmitted)
	fmt.Printf("Elapsed              : %d ms\n", r.Elapsed.Milliseconds())
}
