// Package metrics computes one behavioral snapshot per tick from the current
// sensor reading and the rolling state left by the previous tick.
package metrics

import "time"

// Emotion is the coarse label derived from emotional stability.
type Emotion string

const (
	EmotionStable   Emotion = "STABLE"
	EmotionNervous  Emotion = "NERVOUS"
	EmotionStressed Emotion = "STRESSED"

	// EmotionDefault is reported as dominant when a session has no snapshots.
	EmotionDefault Emotion = "CONFIDENT"
)

// Stability thresholds for emotion labels.
const (
	StableAbove  = 70.0 // >= 70 is STABLE
	NervousAbove = 40.0 // >= 40 is NERVOUS, below is STRESSED
)

// Classify maps an emotional stability score to its label.
// Ranges are [70,100] STABLE, [40,70) NERVOUS, [0,40) STRESSED.
func Classify(stability float64) Emotion {
	switch {
	case stability >= StableAbove:
		return EmotionStable
	case stability >= NervousAbove:
		return EmotionNervous
	default:
		return EmotionStressed
	}
}

// Snapshot is the immutable result of one tick.
type Snapshot struct {
	Timestamp        int64   `json:"timestamp"` // ms since session start
	Confidence       float64 `json:"confidence"`
	EyeContact       bool    `json:"eyeContact"`
	BPM              int     `json:"bpm"`
	Emotion          Emotion `json:"emotion"`
	EmotionStability float64 `json:"emotionStability"`
}

// Input is the raw reading sampled at tick time.
type Input struct {
	GazeLock bool    `json:"gazeLock"`
	Jitter   float64 `json:"jitter"` // smoothed landmark displacement, normalized units
	Volume   float64 `json:"volume"` // 0-100, informational only
}

// State is the rolling value threaded from one tick into the next.
type State struct {
	Stability  float64 `json:"stability"`
	Confidence float64 `json:"confidence"`
}

// Initial values at the beginning of every session.
const (
	InitialStability  = 85.0
	InitialConfidence = 75.0
	RestingBPM        = 72
)

// InitialState returns the rolling state of a fresh session.
func InitialState() State {
	return State{Stability: InitialStability, Confidence: InitialConfidence}
}

// Elapsed converts a duration since session start into a snapshot timestamp.
func Elapsed(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}
