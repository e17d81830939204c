// Package sensors holds the latest reading from each sensor feed and reduces
// raw face-mesh frames to the inputs the metric engine consumes.
package sensors

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/teslashibe/go-zenith/pkg/metrics"
	"github.com/teslashibe/go-zenith/pkg/protocol"
	"github.com/teslashibe/go-zenith/pkg/signal"
)

// ErrUnavailable is returned when a required sensor has reported a fault.
var ErrUnavailable = errors.New("sensors: unavailable")

// Reading is a point-in-time copy of the board.
type Reading struct {
	Input            metrics.Input
	Face             bool
	TrackingAccuracy float64
	EyeVector        protocol.Vector
}

// Board is the shared sensor state read by the recorder at tick time.
// Each field group has exactly one writer: the landmark feed owns gaze,
// jitter, accuracy and eye vector; the audio feed owns volume.
type Board struct {
	mu sync.RWMutex

	face     bool
	gaze     bool
	jitter   float64
	accuracy float64
	eye      protocol.Vector
	volume   float64

	faults map[string]string
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{faults: make(map[string]string)}
}

// SetLandmarks stores a reduced face-mesh frame.
func (b *Board) SetLandmarks(f Frame) {
	b.mu.Lock()
	b.face = f.Face
	b.gaze = f.GazeLock
	b.jitter = f.Jitter
	b.accuracy = f.Accuracy
	b.eye = f.EyeVector
	b.mu.Unlock()
}

// SetGaze stores a gaze reading computed by the producer.
func (b *Board) SetGaze(locked bool, jitter float64) {
	if jitter < 0 {
		jitter = 0
	}
	b.mu.Lock()
	b.face = true
	b.gaze = locked
	b.jitter = jitter
	b.mu.Unlock()
}

// SetVolume stores an audio level, clamped to [0,100].
func (b *Board) SetVolume(level float64) {
	b.mu.Lock()
	b.volume = signal.Clamp(level, 0, 100)
	b.mu.Unlock()
}

// Sample returns a copy of the current readings.
func (b *Board) Sample() Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Reading{
		Input: metrics.Input{
			GazeLock: b.gaze,
			Jitter:   b.jitter,
			Volume:   b.volume,
		},
		Face:             b.face,
		TrackingAccuracy: b.accuracy,
		EyeVector:        b.eye,
	}
}

// SetUnavailable records a fault for source.
func (b *Board) SetUnavailable(source, reason string) {
	b.mu.Lock()
	b.faults[source] = reason
	b.mu.Unlock()
}

// ClearUnavailable removes the fault recorded for source.
func (b *Board) ClearUnavailable(source string) {
	b.mu.Lock()
	delete(b.faults, source)
	b.mu.Unlock()
}

// Err returns nil when every sensor is healthy, otherwise an error wrapping
// ErrUnavailable that names the failing sources.
func (b *Board) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.faults) == 0 {
		return nil
	}

	sources := make([]string, 0, len(b.faults))
	for s := range b.faults {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	src := sources[0]
	if len(sources) == 1 {
		return fmt.Errorf("%w: %s: %s", ErrUnavailable, src, b.faults[src])
	}
	return fmt.Errorf("%w: %s: %s (and %d more)", ErrUnavailable, src, b.faults[src], len(sources)-1)
}
