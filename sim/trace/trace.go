package trace

import "sync"

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every state, fork, and gate event.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects events from concurrently running philosophers.
// Safe for concurrent use.
type SimulationTrace struct {
	Config TraceConfig

	mu     sync.Mutex
	next   uint64
	events []Event
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		events: make([]Event, 0),
	}
}

// Observe assigns the next sequence number to ev and appends it.
// Events are dropped when the level is none or unset.
func (st *SimulationTrace) Observe(ev Event) {
	if st.Config.Level != TraceLevelEvents {
		return
	}
	st.mu.Lock()
	st.next++
	ev.Seq = st.next
	st.events = append(st.events, ev)
	st.mu.Unlock()
}

// Events returns a copy of the recorded events in Seq order.
func (st *SimulationTrace) Events() []Event {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Event, len(st.events))
	copy(out, st.events)
	return out
}

// Len returns the number of recorded events.
func (st *SimulationTrace) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.events)
}

// Reset drops all recorded events, keeping the configuration.
func (st *SimulationTrace) Reset() {
	st.mu.Lock()
	st.events = st.events[:0]
	st.mu.Unlock()
}
