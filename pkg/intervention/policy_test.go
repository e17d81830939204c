package intervention

import "testing"

// fireIndexes feeds a stability series and returns the positions that fired.
func fireIndexes(p Policy, series []float64) []int {
	var (
		s     State
		fired []int
	)
	for i, v := range series {
		var ok bool
		s, ok = p.Next(s, v)
		if ok {
			fired = append(fired, i)
		}
	}
	return fired
}

func TestPolicy_FiresOncePerDip(t *testing.T) {
	got := fireIndexes(Default(), []float64{50, 30, 30, 30, 30})
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("fired at %v, want [3]", got)
	}
}

func TestPolicy_RearmsAfterRecovery(t *testing.T) {
	series := []float64{
		30, 30, 30, 30, 30, // fires at 2
		35,             // recovery, exactly at threshold
		10, 10, 10, 10, // fires again at 8
	}
	got := fireIndexes(Default(), series)
	want := []int{2, 8}
	if len(got) != len(want) {
		t.Fatalf("fired at %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fired at %v, want %v", got, want)
		}
	}
}

func TestPolicy_InterruptedDipDoesNotFire(t *testing.T) {
	got := fireIndexes(Default(), []float64{30, 30, 40, 30, 30, 50})
	if len(got) != 0 {
		t.Fatalf("fired at %v, want none", got)
	}
}

func TestPolicy_NoTimeoutReset(t *testing.T) {
	series := make([]float64, 200)
	for i := range series {
		series[i] = 5
	}
	got := fireIndexes(Default(), series)
	if len(got) != 1 {
		t.Fatalf("sustained dip fired %d times, want 1", len(got))
	}
}

func TestState_Phase(t *testing.T) {
	p := Default()
	var s State

	if s.Phase() != PhaseArmed {
		t.Errorf("initial phase = %s, want ARMED", s.Phase())
	}

	s, _ = p.Next(s, 20)
	if s.Phase() != PhaseBelow || s.Low != 1 {
		t.Errorf("after one low tick: phase=%s low=%d", s.Phase(), s.Low)
	}

	s, _ = p.Next(s, 20)
	s, _ = p.Next(s, 20)
	if s.Phase() != PhaseFired {
		t.Errorf("after three low ticks: phase=%s, want FIRED", s.Phase())
	}

	s, _ = p.Next(s, 90)
	if s.Phase() != PhaseArmed || s.Low != 0 || s.Fired {
		t.Errorf("after recovery: %+v phase=%s", s, s.Phase())
	}
}

func TestPolicy_CustomTrigger(t *testing.T) {
	p := Policy{Threshold: 50, Trigger: 1, Message: "focus"}
	got := fireIndexes(p, []float64{49, 49, 60, 10})
	if len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Fatalf("fired at %v, want [0 3]", got)
	}
}
