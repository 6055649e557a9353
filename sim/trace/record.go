// Package trace records philosopher activity for post-run analysis.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

import "time"

// Kind classifies a trace event.
type Kind string

const (
	// KindState marks a philosopher state transition; State holds the new state.
	KindState Kind = "state"
	// KindForkAcquired is emitted right after a fork is acquired.
	KindForkAcquired Kind = "fork_acquired"
	// KindForkReleasing is emitted right before a fork is released.
	KindForkReleasing Kind = "fork_releasing"
	// KindGateEntered is emitted right after an admission slot is granted.
	KindGateEntered Kind = "gate_entered"
	// KindGateLeaving is emitted right before an admission slot is given back.
	KindGateLeaving Kind = "gate_leaving"
)

// NoFork is the Fork value of events not tied to a fork.
const NoFork = -1

// StateEating is the State string that opens an eating interval.
const StateEating = "eating"

// Event is a single observation. Seq is assigned by the trace and totally
// orders events: acquisitions are recorded after the fact and releases before,
// so two holds of the same fork never overlap in Seq order.
type Event struct {
	Seq         uint64
	Philosopher int
	Kind        Kind
	Fork        int
	State       string
	At          time.Time
}

// Interval is a span of events for one philosopher, [Start, End) in Seq order.
type Interval struct {
	Philosopher int
	Start       uint64
	End         uint64
	StartAt     time.Time
	EndAt       time.Time
}

// Overlaps reports whether the two intervals share any point in Seq order.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}
