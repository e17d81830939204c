package sensors

import (
	"errors"
	"math"
	"testing"

	"github.com/teslashibe/go-zenith/pkg/protocol"
)

const eps = 1e-9

func mesh() []protocol.Point {
	pts := make([]protocol.Point, MeshPoints)
	for i := range pts {
		pts[i] = protocol.Point{X: 0.5, Y: 0.45}
	}
	return pts
}

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestLandmarkTracker_FirstFrame(t *testing.T) {
	tr := NewLandmarkTracker()

	f, err := tr.Update(mesh())
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !f.Face || !f.GazeLock {
		t.Errorf("Face/GazeLock = %v/%v, want true/true", f.Face, f.GazeLock)
	}
	if f.Jitter != 0 {
		t.Errorf("jitter = %v, want 0 with no previous frame", f.Jitter)
	}
	if !near(f.Accuracy, 0.05) {
		t.Errorf("accuracy = %v, want 0.05", f.Accuracy)
	}
}

func TestLandmarkTracker_JitterAndAccuracy(t *testing.T) {
	tr := NewLandmarkTracker()
	if _, err := tr.Update(mesh()); err != nil {
		t.Fatal(err)
	}

	next := mesh()
	next[IndexNoseTip].X += 0.003
	next[IndexLeftEye].Z = 0.01
	next[IndexRightEye].Z = -0.01

	f, err := tr.Update(next)
	if err != nil {
		t.Fatal(err)
	}

	// 0*0.9 + 0.003*0.1
	if !near(f.Jitter, 0.0003) {
		t.Errorf("jitter = %v, want 0.0003", f.Jitter)
	}
	// 0.05*0.95 + 0.05*(1-0.3)
	if !near(f.Accuracy, 0.0825) {
		t.Errorf("accuracy = %v, want 0.0825", f.Accuracy)
	}
	if !near(f.EyeVector.X, -0.18) || !near(f.EyeVector.Y, 0) || !near(f.EyeVector.Z, 0.2) {
		t.Errorf("eye vector = %+v, want {-0.18 0 0.2}", f.EyeVector)
	}
}

func TestLandmarkTracker_GazeWindow(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		locked bool
	}{
		{"centered", 0.5, 0.45, true},
		{"inside edge", 0.61, 0.34, true},
		{"right of window", 0.65, 0.45, false},
		{"below window", 0.5, 0.58, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := mesh()
			pts[IndexLeftIris] = protocol.Point{X: tt.x, Y: tt.y}

			f, err := NewLandmarkTracker().Update(pts)
			if err != nil {
				t.Fatal(err)
			}
			if f.GazeLock != tt.locked {
				t.Errorf("GazeLock = %v, want %v", f.GazeLock, tt.locked)
			}
		})
	}
}

func TestLandmarkTracker_NoFace(t *testing.T) {
	tr := NewLandmarkTracker()
	tr.Update(mesh())
	moved := mesh()
	moved[IndexNoseTip].X += 0.01
	before, _ := tr.Update(moved)

	f, err := tr.Update(nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.Face || f.GazeLock {
		t.Error("empty frame should report no face and no gaze lock")
	}
	if f.Accuracy != 0 {
		t.Errorf("accuracy = %v, want 0", f.Accuracy)
	}
	if f.Jitter != before.Jitter {
		t.Errorf("jitter = %v, want held at %v", f.Jitter, before.Jitter)
	}
}

func TestLandmarkTracker_ShortFrame(t *testing.T) {
	_, err := NewLandmarkTracker().Update(make([]protocol.Point, 468))
	if !errors.Is(err, ErrShortFrame) {
		t.Errorf("error = %v, want ErrShortFrame", err)
	}
}

func TestLandmarkTracker_Reset(t *testing.T) {
	tr := NewLandmarkTracker()
	tr.Update(mesh())
	moved := mesh()
	moved[IndexNoseTip].Y += 0.02
	tr.Update(moved)

	tr.Reset()
	f, _ := tr.Update(mesh())
	if f.Jitter != 0 || !near(f.Accuracy, 0.05) {
		t.Errorf("after reset jitter/accuracy = %v/%v, want 0/0.05", f.Jitter, f.Accuracy)
	}
}
