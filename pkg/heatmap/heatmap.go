// Package heatmap down-samples a snapshot sequence into a bounded number of
// color-classified stability buckets for display and export.
package heatmap

import (
	"github.com/teslashibe/go-zenith/pkg/metrics"
)

// MaxBuckets bounds the report heat-map regardless of session length.
const MaxBuckets = 60

// Color is the categorical tag of a bucket.
type Color string

const (
	ColorZenith Color = "ZENITH" // >= 70
	ColorStable Color = "STABLE" // [40,70)
	ColorAlert  Color = "ALERT"  // < 40
)

// Segment is one heat-map bucket.
type Segment struct {
	Index     int     `json:"index"`
	Stability float64 `json:"stability"`
	Color     Color   `json:"color"`
}

// Classify maps an averaged stability to a color tag.
func Classify(avg float64) Color {
	switch {
	case avg < 40:
		return ColorAlert
	case avg < 70:
		return ColorStable
	default:
		return ColorZenith
	}
}

// Reduce buckets history into at most MaxBuckets segments.
func Reduce(history []metrics.Snapshot) []Segment {
	return ReduceTo(history, MaxBuckets)
}

// ReduceTo buckets history into at most maxBuckets segments of equal chunk
// size ceil(n/min(maxBuckets, n)); the last chunk may be shorter.
func ReduceTo(history []metrics.Snapshot, maxBuckets int) []Segment {
	n := len(history)
	if n == 0 || maxBuckets <= 0 {
		return []Segment{}
	}
	buckets := min(maxBuckets, n)
	chunk := (n + buckets - 1) / buckets
	return ReduceChunked(history, chunk)
}

// Live returns one segment per snapshot, for the in-session heat-map.
func Live(history []metrics.Snapshot) []Segment {
	return ReduceChunked(history, 1)
}

// ReduceChunked partitions history into contiguous chunks of chunkSize and
// averages each. Chunks are never empty. chunkSize < 1 is treated as 1.
func ReduceChunked(history []metrics.Snapshot, chunkSize int) []Segment {
	if chunkSize < 1 {
		chunkSize = 1
	}
	n := len(history)
	out := make([]Segment, 0, (n+chunkSize-1)/chunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)

		sum := 0.0
		for _, s := range history[start:end] {
			sum += s.EmotionStability
		}
		avg := sum / float64(end-start)

		out = append(out, Segment{
			Index:     len(out),
			Stability: avg,
			Color:     Classify(avg),
		})
	}
	return out
}
