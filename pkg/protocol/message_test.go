package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/teslashibe/go-zenith/pkg/heatmap"
	"github.com/teslashibe/go-zenith/pkg/metrics"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
		wantErr bool
	}{
		{
			name:    "landmarks message",
			msgType: TypeLandmarks,
			data:    LandmarksData{Points: []Point{{X: 0.5, Y: 0.45}}},
		},
		{
			name:    "volume message",
			msgType: TypeVolume,
			data:    VolumeData{Level: 42},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeLog,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestLandmarksRoundTrip(t *testing.T) {
	points := make([]Point, 478)
	points[468] = Point{X: 0.51, Y: 0.44, Z: -0.02}

	msg, err := NewLandmarksMessage(points)
	if err != nil {
		t.Fatalf("NewLandmarksMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeLandmarks {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeLandmarks)
	}

	data, err := parsed.GetLandmarksData()
	if err != nil {
		t.Fatalf("GetLandmarksData() error = %v", err)
	}
	if len(data.Points) != 478 {
		t.Fatalf("len(Points) = %d, want 478", len(data.Points))
	}
	if data.Points[468] != points[468] {
		t.Errorf("Points[468] = %+v, want %+v", data.Points[468], points[468])
	}
}

func TestIngestPayloads(t *testing.T) {
	gaze, _ := NewGazeMessage(true, 0.003)
	g, err := gaze.GetGazeData()
	if err != nil || !g.Locked || g.Jitter != 0.003 {
		t.Errorf("GetGazeData() = %+v, %v", g, err)
	}

	vol, _ := NewVolumeMessage(64)
	v, err := vol.GetVolumeData()
	if err != nil || v.Level != 64 {
		t.Errorf("GetVolumeData() = %+v, %v", v, err)
	}

	tr, _ := NewTranscriptMessage("umm so basically", true)
	td, err := tr.GetTranscriptData()
	if err != nil || td.Text != "umm so basically" || !td.Final {
		t.Errorf("GetTranscriptData() = %+v, %v", td, err)
	}

	se, _ := NewSensorErrorMessage("camera", "permission denied")
	sd, err := se.GetSensorErrorData()
	if err != nil || sd.Source != "camera" || sd.Recovered {
		t.Errorf("GetSensorErrorData() = %+v, %v", sd, err)
	}
}

func TestSpectrumFromWire(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"spectrum","data":{"bins":[0,128,255]}}`))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	data, err := msg.GetSpectrumData()
	if err != nil {
		t.Fatalf("GetSpectrumData() error = %v", err)
	}
	if len(data.Bins) != 3 || data.Bins[2] != 255 {
		t.Errorf("Bins = %v, want [0 128 255]", data.Bins)
	}
}

func TestStatusMessage(t *testing.T) {
	msg, err := NewStatusMessage("ANALYZING", "abc", nil)
	if err != nil {
		t.Fatalf("NewStatusMessage() error = %v", err)
	}

	var data StatusData
	if err := msg.ParseData(&data); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if data.Phase != "ANALYZING" || data.SessionID != "abc" || data.Error != "" {
		t.Errorf("StatusData = %+v", data)
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewMessage(TypePing, PingData{ID: "test-123"})
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}
	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}

	now := time.Now().UnixMilli()
	pongMsg, err := NewPongMessage("test-123", pingMsg.Timestamp, now)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	var pongData PongData
	if err := pongMsg.ParseData(&pongData); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, should be >= 0", pongData.LatencyMs)
	}
}

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"invalid json", "not json", true},
		{"missing type", "{}", true},
		{"valid message", `{"type":"ping","ts":1234567890}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMetricsJSON(t *testing.T) {
	msg, _ := NewMessage(TypeMetrics, MetricsData{
		Snapshot: metrics.Snapshot{Timestamp: 1000, Confidence: 77, EyeContact: true, BPM: 75,
			Emotion: metrics.EmotionStable, EmotionStability: 89.5},
		Heatmap: []heatmap.Segment{{Index: 0, Stability: 89.5, Color: heatmap.ColorZenith}},
	})

	raw, _ := msg.Bytes()

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}
	if parsed["type"] != "metrics" {
		t.Errorf("type = %v, want metrics", parsed["type"])
	}

	data := parsed["data"].(map[string]any)
	snap := data["snapshot"].(map[string]any)
	if snap["emotionStability"] != 89.5 || snap["eyeContact"] != true {
		t.Errorf("snapshot fields = %v", snap)
	}
	if _, ok := data["trackingAccuracy"]; !ok {
		t.Error("trackingAccuracy field should be present")
	}
}

func BenchmarkParseLandmarks(b *testing.B) {
	msg, _ := NewLandmarksMessage(make([]Point, 478))
	raw, _ := msg.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m, _ := ParseMessage(raw)
		m.GetLandmarksData()
	}
}
