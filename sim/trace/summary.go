package trace

// TraceSummary aggregates statistics from a SimulationTrace by replaying its
// events in Seq order.
type TraceSummary struct {
	TotalEvents      int
	ForkAcquisitions int
	PeakForksHeld    int         // forks held at the same time, table-wide
	PeakHolders      int         // philosophers holding at least one fork at the same time
	PeakEating       int         // philosophers eating at the same time
	PeakAdmitted     int         // gate slots held at the same time
	DoubleHolds      int         // acquisitions of a fork someone else still held
	Meals            map[int]int // philosopher ID → eating intervals started
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{Meals: make(map[int]int)}
	if st == nil {
		return summary
	}
	events := st.Events()
	summary.TotalEvents = len(events)

	forkHolder := make(map[int]int)
	held := make(map[int]int)
	eating := make(map[int]bool)
	var forksHeld, holders, eaters, admitted int

	for _, ev := range events {
		switch ev.Kind {
		case KindForkAcquired:
			summary.ForkAcquisitions++
			if _, busy := forkHolder[ev.Fork]; busy {
				summary.DoubleHolds++
			}
			forkHolder[ev.Fork] = ev.Philosopher
			forksHeld++
			held[ev.Philosopher]++
			if held[ev.Philosopher] == 1 {
				holders++
			}
		case KindForkReleasing:
			if forkHolder[ev.Fork] == ev.Philosopher {
				delete(forkHolder, ev.Fork)
			}
			forksHeld--
			held[ev.Philosopher]--
			if held[ev.Philosopher] == 0 {
				holders--
			}
			if eating[ev.Philosopher] {
				eating[ev.Philosopher] = false
				eaters--
			}
		case KindState:
			if ev.State == StateEating && !eating[ev.Philosopher] {
				eating[ev.Philosopher] = true
				eaters++
				summary.Meals[ev.Philosopher]++
			}
		case KindGateEntered:
			admitted++
		case KindGateLeaving:
			admitted--
		}
		summary.PeakForksHeld = max(summary.PeakForksHeld, forksHeld)
		summary.PeakHolders = max(summary.PeakHolders, holders)
		summary.PeakEating = max(summary.PeakEating, eaters)
		summary.PeakAdmitted = max(summary.PeakAdmitted, admitted)
	}
	return summary
}

// EatingIntervals returns one interval per meal, from the transition to
// eating until the first fork release that follows it. Meals still open at
// the end of the trace end at the last Seq plus one.
func EatingIntervals(st *SimulationTrace) []Interval {
	if st == nil {
		return nil
	}
	events := st.Events()
	open := make(map[int]Interval)
	var out []Interval
	for _, ev := range events {
		switch {
		case ev.Kind == KindState && ev.State == StateEating:
			if _, ok := open[ev.Philosopher]; !ok {
				open[ev.Philosopher] = Interval{Philosopher: ev.Philosopher, Start: ev.Seq, StartAt: ev.At}
			}
		case ev.Kind == KindForkReleasing:
			if iv, ok := open[ev.Philosopher]; ok {
				iv.End, iv.EndAt = ev.Seq, ev.At
				out = append(out, iv)
				delete(open, ev.Philosopher)
			}
		}
	}
	if len(open) > 0 {
		end := events[len(events)-1].Seq + 1
		for _, iv := range open {
			iv.End = end
			out = append(out, iv)
		}
	}
	return out
}

// AdjacentOverlaps returns every pair of eating intervals that overlap while
// belonging to neighbors on a ring of the given size. Neighbors share a fork,
// so a correct run returns none.
func AdjacentOverlaps(intervals []Interval, ring int) [][2]Interval {
	if ring < 2 {
		return nil
	}
	var out [][2]Interval
	for i, a := range intervals {
		for _, b := range intervals[i+1:] {
			if !adjacent(a.Philosopher, b.Philosopher, ring) {
				continue
			}
			if a.Overlaps(b) {
				out = append(out, [2]Interval{a, b})
			}
		}
	}
	return out
}

func adjacent(a, b, ring int) bool {
	return a != b && ((a+1)%ring == b || (b+1)%ring == a)
}
