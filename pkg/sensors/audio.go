package sensors

import "github.com/teslashibe/go-zenith/pkg/signal"

// SpectrumLevel maps byte frequency bins (0-255) to a 0-100 level using
// the bin mean. Empty input is silence.
func SpectrumLevel(bins []int) float64 {
	if len(bins) == 0 {
		return 0
	}
	sum := 0
	for _, b := range bins {
		sum += min(max(b, 0), 255)
	}
	mean := float64(sum) / float64(len(bins))
	return signal.Clamp(mean*100/255, 0, 100)
}
