package sensors

import (
	"errors"
	"math"

	"github.com/teslashibe/go-zenith/pkg/protocol"
	"github.com/teslashibe/go-zenith/pkg/signal"
)

// Face-mesh indices (478-point refined mesh).
const (
	IndexNoseTip    = 1
	IndexLeftEye    = 33
	IndexRightEye   = 263
	IndexMouthLeft  = 61
	IndexMouthRight = 291
	IndexLeftIris   = 468
	IndexRightIris  = 473

	// MeshPoints is the size of a refined face-mesh frame.
	MeshPoints = 478
)

// jitterIndices are the stable anchor points used for the motion estimate.
var jitterIndices = [...]int{IndexNoseTip, IndexLeftEye, IndexRightEye, IndexMouthLeft, IndexMouthRight}

// ErrShortFrame is returned for a non-empty frame without iris points.
var ErrShortFrame = errors.New("sensors: landmark frame too short")

// Gaze lock window around the lens, in normalized image coordinates.
const (
	gazeCenterX   = 0.5
	gazeCenterY   = 0.45
	gazeTolerance = 0.12

	eyeVectorScale = 60
	eyeDepthScale  = 10

	accuracyAlpha      = 0.05
	accuracyJitterGain = 1000
)

// Frame is one face-mesh frame reduced to engine and HUD values.
type Frame struct {
	Face      bool
	GazeLock  bool
	Jitter    float64
	Accuracy  float64
	EyeVector protocol.Vector
}

// LandmarkTracker keeps the inter-frame state needed to reduce frames.
// It is not safe for concurrent use; the landmark feed owns it.
type LandmarkTracker struct {
	prev     []protocol.Point
	jitter   float64
	accuracy float64
}

// NewLandmarkTracker returns a tracker with zero jitter and accuracy.
func NewLandmarkTracker() *LandmarkTracker {
	return &LandmarkTracker{}
}

// Update reduces one frame. An empty frame means no face: accuracy drops to 0,
// gaze lock is lost and jitter holds its last value.
func (t *LandmarkTracker) Update(points []protocol.Point) (Frame, error) {
	if len(points) == 0 {
		t.accuracy = 0
		return Frame{Jitter: t.jitter}, nil
	}
	if len(points) <= IndexRightIris {
		return Frame{}, ErrShortFrame
	}

	if t.prev != nil {
		total := 0.0
		for _, idx := range jitterIndices {
			total += math.Hypot(points[idx].X-t.prev[idx].X, points[idx].Y-t.prev[idx].Y)
		}
		t.jitter = signal.Smooth(t.jitter, total, signal.JitterAlpha)
	}
	t.prev = points

	left, right := points[IndexLeftIris], points[IndexRightIris]
	center := points[IndexNoseTip]

	eye := protocol.Vector{
		X: ((left.X+right.X)/2 - center.X) * eyeVectorScale,
		Y: ((left.Y+right.Y)/2 - center.Y) * eyeVectorScale,
		Z: math.Abs(points[IndexLeftEye].Z-points[IndexRightEye].Z) * eyeDepthScale,
	}

	locked := math.Abs(left.X-gazeCenterX) < gazeTolerance && math.Abs(left.Y-gazeCenterY) < gazeTolerance

	t.accuracy = signal.Smooth(t.accuracy, 1-math.Min(1, t.jitter*accuracyJitterGain), accuracyAlpha)

	return Frame{
		Face:      true,
		GazeLock:  locked,
		Jitter:    t.jitter,
		Accuracy:  t.accuracy,
		EyeVector: eye,
	}, nil
}

// Reset forgets the previous frame and smoothed values.
func (t *LandmarkTracker) Reset() {
	t.prev = nil
	t.jitter = 0
	t.accuracy = 0
}
