// Package intervention escalates sustained low emotional stability into a
// one-shot advisory event.
//
// The rule is a small state machine threaded through Policy.Next:
//
//	ARMED --(stability < threshold)--> BELOW(n) --(n reaches trigger)--> FIRED
//	any   --(stability >= threshold)--> ARMED
//
// FIRED emits exactly once and stays silent until stability recovers.
package intervention

// DefaultMessage is spoken when the policy fires.
const DefaultMessage = "Take a deep breath. Recalibrating focus."

// Phase names the state machine position.
type Phase int

const (
	PhaseArmed Phase = iota
	PhaseBelow
	PhaseFired
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseArmed:
		return "ARMED"
	case PhaseBelow:
		return "BELOW_THRESHOLD"
	case PhaseFired:
		return "FIRED"
	default:
		return "UNKNOWN"
	}
}

// State is the rolling policy state owned by the caller.
type State struct {
	Low   int  `json:"low"`   // consecutive ticks below threshold
	Fired bool `json:"fired"` // advisory already emitted for this dip
}

// Phase reports where the state machine is.
func (s State) Phase() Phase {
	switch {
	case s.Fired:
		return PhaseFired
	case s.Low > 0:
		return PhaseBelow
	default:
		return PhaseArmed
	}
}

// Policy holds the escalation parameters.
type Policy struct {
	Threshold float64 // stability strictly below this counts as low
	Trigger   int     // consecutive low ticks before firing
	Message   string
}

// Default returns the standard policy: three ticks below 35.
func Default() Policy {
	return Policy{
		Threshold: 35,
		Trigger:   3,
		Message:   DefaultMessage,
	}
}

// Next advances the state by one tick and reports whether to fire.
func (p Policy) Next(s State, stability float64) (State, bool) {
	if stability >= p.Threshold {
		return State{}, false
	}

	s.Low++
	if s.Low >= p.Trigger && !s.Fired {
		s.Fired = true
		return s, true
	}
	return s, false
}
