// Package session owns the snapshot sequence of a recording session and
// reduces it to summary statistics when the session stops.
package session

import (
	"github.com/teslashibe/go-zenith/pkg/metrics"
)

// Data is the summary produced once per session at stop time.
type Data struct {
	ID                   string             `json:"id"`
	Duration             float64            `json:"duration"` // seconds
	FillerWords          map[string]int     `json:"fillerWords"`
	AvgConfidence        float64            `json:"avgConfidence"`
	EyeContactPercentage float64            `json:"eyeContactPercentage"`
	AvgBPM               float64            `json:"avgBpm"`
	AvgEmotionStability  float64            `json:"avgEmotionStability"`
	MetricsHistory       []metrics.Snapshot `json:"metricsHistory"`
	DominantEmotion      metrics.Emotion    `json:"dominantEmotion"`
	Transcript           string             `json:"transcript"`
}

// TotalFillers sums all filler word counts.
func (d Data) TotalFillers() int {
	total := 0
	for _, n := range d.FillerWords {
		total += n
	}
	return total
}

// Summarize reduces a snapshot sequence to averages. An empty sequence yields
// zero averages and the default dominant emotion.
func Summarize(history []metrics.Snapshot) (avgConfidence, eyeContactPct, avgBPM, avgStability float64, dominant metrics.Emotion) {
	if len(history) == 0 {
		return 0, 0, 0, 0, metrics.EmotionDefault
	}

	var conf, bpm, stab float64
	eye := 0
	for _, s := range history {
		conf += s.Confidence
		bpm += float64(s.BPM)
		stab += s.EmotionStability
		if s.EyeContact {
			eye++
		}
	}

	n := float64(len(history))
	return conf / n, float64(eye) / n * 100, bpm / n, stab / n, history[len(history)-1].Emotion
}
