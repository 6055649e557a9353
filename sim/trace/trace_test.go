package trace

import (
	"sync"
	"testing"
)

func TestSimulationTrace_Observe_AssignsSequence(t *testing.T) {
	// GIVEN a trace configured for events
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN two events are observed
	st.Observe(Event{Philosopher: 0, Kind: KindForkAcquired, Fork: 0})
	st.Observe(Event{Philosopher: 1, Kind: KindForkAcquired, Fork: 1})

	// THEN they are kept in order with increasing sequence numbers
	events := st.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Errorf("expected seq 1,2, got %d,%d", events[0].Seq, events[1].Seq)
	}
	if events[1].Philosopher != 1 {
		t.Errorf("expected philosopher 1, got %d", events[1].Philosopher)
	}
}

func TestSimulationTrace_LevelNone_DropsEvents(t *testing.T) {
	for _, level := range []TraceLevel{TraceLevelNone, ""} {
		st := NewSimulationTrace(TraceConfig{Level: level})
		st.Observe(Event{Kind: KindState, State: "thinking"})
		if st.Len() != 0 {
			t.Errorf("level %q: expected no events, got %d", level, st.Len())
		}
	}
}

func TestSimulationTrace_ConcurrentObserve(t *testing.T) {
	// GIVEN a trace and many concurrent writers
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				st.Observe(Event{Philosopher: id, Kind: KindState, State: "thinking"})
			}
		}(w)
	}
	wg.Wait()

	// THEN no event is lost and sequence numbers are unique and dense
	events := st.Events()
	if len(events) != 800 {
		t.Fatalf("expected 800 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d", i, ev.Seq)
		}
	}
}

func TestSimulationTrace_Events_ReturnsCopy(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.Observe(Event{Philosopher: 3})
	events := st.Events()
	events[0].Philosopher = 99
	if st.Events()[0].Philosopher != 3 {
		t.Error("mutating the returned slice changed the trace")
	}
}

func TestSimulationTrace_Reset(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.Observe(Event{})
	st.Reset()
	if st.Len() != 0 {
		t.Errorf("expected empty trace after Reset, got %d", st.Len())
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"", true},
		{"none", true},
		{"events", true},
		{"decisions", false},
		{"verbose", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.want {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
