package advisory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-zenith/pkg/protocol"
	"github.com/teslashibe/go-zenith/pkg/tts"
)

// Broadcaster is the subset of hub.Hub the sinks need.
type Broadcaster interface {
	BroadcastJSON(v any) error
	BroadcastBinary(data []byte)
}

// LogSink writes advisories to a logger.
type LogSink struct {
	Logger *slog.Logger
}

// Deliver logs msg at warn level.
func (s LogSink) Deliver(_ context.Context, msg string) error {
	s.Logger.Warn("intervention", "message", msg)
	return nil
}

// HubSink broadcasts advisories to dashboard clients as protocol messages.
type HubSink struct {
	Hub Broadcaster
}

// Deliver broadcasts an advisory message.
func (s HubSink) Deliver(_ context.Context, msg string) error {
	m, err := protocol.NewAdvisoryMessage(msg)
	if err != nil {
		return err
	}
	return s.Hub.BroadcastJSON(m)
}

// SpeechSink synthesizes advisories and broadcasts the audio as a binary
// frame for the dashboard to play.
type SpeechSink struct {
	Provider tts.Provider
	Hub      Broadcaster
}

// Deliver synthesizes msg and broadcasts the audio.
func (s SpeechSink) Deliver(ctx context.Context, msg string) error {
	result, err := s.Provider.Synthesize(ctx, msg)
	if err != nil {
		return fmt.Errorf("speak advisory: %w", err)
	}
	s.Hub.BroadcastBinary(result.Audio)
	return nil
}
