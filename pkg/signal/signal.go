// Package signal provides the exponential smoothing used to turn noisy
// per-frame measurements into stable scores.
//
// All functions are pure: callers own the previous value and thread it
// through explicitly, which keeps smoothing testable without a running timer.
package signal

// Smoothing factors used by the metric pipeline.
const (
	// JitterAlpha weights a new landmark displacement sample (10% new, 90% old).
	JitterAlpha = 0.1

	// StabilityAlpha weights the per-tick stability modifier (30% new, 70% old).
	StabilityAlpha = 0.3
)

// Smooth returns previous*(1-alpha) + sample*alpha.
// alpha must be in (0,1]; alpha == 1 returns sample unchanged.
func Smooth(previous, sample, alpha float64) float64 {
	return previous*(1-alpha) + sample*alpha
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
