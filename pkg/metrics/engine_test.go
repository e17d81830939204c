package metrics

import (
	"math"
	"testing"
	"time"
)

// fixedRand returns values from a script, cycling.
type fixedRand struct {
	values []int
	i      int
}

func (f *fixedRand) IntN(n int) int {
	v := f.values[f.i%len(f.values)] % n
	f.i++
	return v
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		stability float64
		expected  Emotion
	}{
		{0, EmotionStressed},
		{39.999, EmotionStressed},
		{40, EmotionNervous},
		{55, EmotionNervous},
		{69.999, EmotionNervous},
		{70, EmotionStable},
		{100, EmotionStable},
	}

	for _, tt := range tests {
		if got := Classify(tt.stability); got != tt.expected {
			t.Errorf("Classify(%v) = %s, want %s", tt.stability, got, tt.expected)
		}
	}
}

func TestEngine_Modifier(t *testing.T) {
	e := NewEngine(WithRand(&fixedRand{values: []int{0}}))

	tests := []struct {
		name     string
		in       Input
		expected float64
	}{
		{"still with gaze", Input{GazeLock: true, Jitter: 0}, 100},
		{"still without gaze", Input{GazeLock: false, Jitter: 0}, 85},
		{"small jitter", Input{GazeLock: true, Jitter: 0.002}, 90},
		{"jitter and gaze loss", Input{GazeLock: false, Jitter: 0.004}, 65},
		{"floors at zero", Input{GazeLock: false, Jitter: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Modifier(tt.in); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEngine_Step(t *testing.T) {
	e := NewEngine(WithRand(&fixedRand{values: []int{3}}))

	snap, next := e.Step(InitialState(), Input{GazeLock: true, Jitter: 0}, 1500*time.Millisecond)

	// 85*0.7 + 100*0.3
	if math.Abs(next.Stability-89.5) > 1e-9 {
		t.Errorf("stability = %v, want 89.5", next.Stability)
	}
	if next.Confidence != 77 {
		t.Errorf("confidence = %v, want 77", next.Confidence)
	}
	if snap.BPM != 75 {
		t.Errorf("bpm = %d, want 75", snap.BPM)
	}
	if snap.Emotion != EmotionStable {
		t.Errorf("emotion = %s, want STABLE", snap.Emotion)
	}
	if snap.Timestamp != 1500 {
		t.Errorf("timestamp = %d, want 1500", snap.Timestamp)
	}
	if !snap.EyeContact {
		t.Error("eye contact should mirror gaze lock")
	}
	if snap.Confidence != next.Confidence || snap.EmotionStability != next.Stability {
		t.Error("snapshot and next state disagree")
	}
}

func TestEngine_StressElevatesBPM(t *testing.T) {
	e := NewEngine(WithRand(&fixedRand{values: []int{0}}))

	prev := State{Stability: 40, Confidence: 50}
	snap, next := e.Step(prev, Input{GazeLock: false, Jitter: 0.02}, 0)

	// modifier = max(0, 100-100-15) = 0, stability = 40*0.7 = 28
	if math.Abs(next.Stability-28) > 1e-9 {
		t.Errorf("stability = %v, want 28", next.Stability)
	}
	if snap.BPM != RestingBPM+15 {
		t.Errorf("bpm = %d, want %d", snap.BPM, RestingBPM+15)
	}
	if snap.Emotion != EmotionStressed {
		t.Errorf("emotion = %s, want STRESSED", snap.Emotion)
	}
	if next.Confidence != 47 {
		t.Errorf("confidence = %v, want 47", next.Confidence)
	}
}

func TestEngine_ConfidenceClamped(t *testing.T) {
	e := NewEngine(WithRand(&fixedRand{values: []int{0}}))

	state := InitialState()
	for i := 0; i < 1000; i++ {
		var snap Snapshot
		snap, state = e.Step(state, Input{GazeLock: false, Jitter: 0.5}, time.Duration(i)*time.Second)
		if snap.Confidence < 10 || snap.Confidence > 100 {
			t.Fatalf("tick %d: confidence %v out of [10,100]", i, snap.Confidence)
		}
	}
	if state.Confidence != 10 {
		t.Errorf("confidence after 1000 gaze losses = %v, want 10", state.Confidence)
	}

	for i := 0; i < 1000; i++ {
		_, state = e.Step(state, Input{GazeLock: true}, 0)
	}
	if state.Confidence != 100 {
		t.Errorf("confidence after 1000 gaze locks = %v, want 100", state.Confidence)
	}
}

func TestEngine_OutputsStayInRange(t *testing.T) {
	e := NewEngine()
	inputs := []Input{
		{GazeLock: true, Jitter: 0},
		{GazeLock: false, Jitter: 10},
		{GazeLock: true, Jitter: 0.001},
		{GazeLock: false, Jitter: 0},
	}

	state := State{Stability: 100, Confidence: 100}
	for i := 0; i < 500; i++ {
		var snap Snapshot
		snap, state = e.Step(state, inputs[i%len(inputs)], 0)

		if snap.EmotionStability < 0 || snap.EmotionStability > 100 {
			t.Fatalf("stability %v out of [0,100]", snap.EmotionStability)
		}
		if snap.Emotion != Classify(snap.EmotionStability) {
			t.Fatalf("emotion %s does not match stability %v", snap.Emotion, snap.EmotionStability)
		}
		if snap.Confidence != math.Trunc(snap.Confidence) {
			t.Fatalf("confidence %v should be integer-valued", snap.Confidence)
		}
		if snap.BPM < RestingBPM || snap.BPM > RestingBPM+7+15 {
			t.Fatalf("bpm %d outside expected band", snap.BPM)
		}
	}
}

func TestEngine_DeterministicWithRand(t *testing.T) {
	run := func() []Snapshot {
		e := NewEngine(WithRand(&fixedRand{values: []int{1, 6, 2, 7}}))
		state := InitialState()
		var out []Snapshot
		for i := 0; i < 8; i++ {
			var snap Snapshot
			snap, state = e.Step(state, Input{GazeLock: i%2 == 0, Jitter: 0.001 * float64(i)}, time.Duration(i)*time.Second)
			out = append(out, snap)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tick %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestElapsed(t *testing.T) {
	if got := Elapsed(-time.Second); got != 0 {
		t.Errorf("negative elapsed = %d, want 0", got)
	}
	if got := Elapsed(2 * time.Second); got != 2000 {
		t.Errorf("Elapsed(2s) = %d, want 2000", got)
	}
}
