// Package protocol defines the WebSocket message types exchanged between
// sensor producers, the zenith server and dashboard clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-zenith/pkg/heatmap"
	"github.com/teslashibe/go-zenith/pkg/metrics"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Producer → server (ingest)
	TypeLandmarks   MessageType = "landmarks"    // Face mesh frame
	TypeGaze        MessageType = "gaze"         // Pre-reduced gaze + jitter
	TypeVolume      MessageType = "volume"       // Scalar audio level
	TypeSpectrum    MessageType = "spectrum"     // Byte frequency bins
	TypeTranscript  MessageType = "transcript"   // Speech-to-text fragment
	TypeSensorError MessageType = "sensor_error" // Producer fault / recovery

	// Server → dashboard
	TypeMetrics  MessageType = "metrics"  // Per-tick snapshot
	TypeAdvisory MessageType = "advisory" // Intervention prompt
	TypeLog      MessageType = "log"      // HUD activity line
	TypeStatus   MessageType = "status"   // Lifecycle phase change
	TypeReport   MessageType = "report"   // Final report

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Ingest Message Types
// =============================================================================

// Point is one normalized face-mesh landmark.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LandmarksData is one face-mesh frame. An empty Points slice means no face.
type LandmarksData struct {
	Points []Point `json:"points"`
}

// GazeData is a landmark frame already reduced by the producer.
type GazeData struct {
	Locked bool    `json:"locked"`
	Jitter float64 `json:"jitter"`
}

// VolumeData carries an instantaneous audio level in [0,100].
type VolumeData struct {
	Level float64 `json:"level"`
}

// SpectrumData carries byte frequency bins (0-255 each).
type SpectrumData struct {
	Bins []int `json:"bins"`
}

// TranscriptData is one speech recognition fragment.
type TranscriptData struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// SensorErrorData reports a producer fault, or its recovery.
type SensorErrorData struct {
	Source    string `json:"source"` // "camera", "microphone", "speech"
	Message   string `json:"message,omitempty"`
	Recovered bool   `json:"recovered,omitempty"`
}

// =============================================================================
// Dashboard Message Types
// =============================================================================

// Vector is the HUD eye vector.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MetricsData is broadcast once per tick.
type MetricsData struct {
	Snapshot         metrics.Snapshot  `json:"snapshot"`
	Heatmap          []heatmap.Segment `json:"heatmap,omitempty"`
	TrackingAccuracy float64           `json:"trackingAccuracy"`
	EyeVector        Vector            `json:"eyeVector"`
	Volume           float64           `json:"volume"`
}

// AdvisoryData carries an intervention prompt.
type AdvisoryData struct {
	Message string `json:"message"`
}

// LogData is one HUD activity line.
type LogData struct {
	Line string `json:"line"`
}

// StatusData reports a lifecycle change.
type StatusData struct {
	Phase     string `json:"phase"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
