package sensors

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/protocol"
)

// ErrUnknownType is returned for message types a feed does not consume.
var ErrUnknownType = errors.New("sensors: unknown message type")

// TranscriptFunc receives speech fragments.
type TranscriptFunc func(text string, final bool)

// FaultFunc is told when a source fails or recovers.
type FaultFunc func(source, reason string, recovered bool)

// Feed applies ingest messages to a Board. Landmark frames are reduced
// through a single LandmarkTracker regardless of which connection sent them.
type Feed struct {
	board *Board

	trackerMu sync.Mutex
	tracker   *LandmarkTracker

	onTranscript TranscriptFunc
	onFault      FaultFunc
	logger       *slog.Logger

	frames atomic.Uint64
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithTranscriptHandler routes transcript fragments to fn.
func WithTranscriptHandler(fn TranscriptFunc) FeedOption {
	return func(f *Feed) { f.onTranscript = fn }
}

// WithFaultHandler routes sensor faults to fn after the board is updated.
func WithFaultHandler(fn FaultFunc) FeedOption {
	return func(f *Feed) { f.onFault = fn }
}

// WithLogger sets the feed logger.
func WithLogger(l *slog.Logger) FeedOption {
	return func(f *Feed) { f.logger = l }
}

// NewFeed returns a feed writing to board.
func NewFeed(board *Board, opts ...FeedOption) *Feed {
	f := &Feed{
		board:   board,
		tracker: NewLandmarkTracker(),
		logger:  log.L(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "sensors.feed")
	return f
}

// Board returns the board the feed writes to.
func (f *Feed) Board() *Board {
	return f.board
}

// Frames returns the number of landmark frames applied.
func (f *Feed) Frames() uint64 {
	return f.frames.Load()
}

// Handle applies one message.
func (f *Feed) Handle(msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeLandmarks:
		data, err := msg.GetLandmarksData()
		if err != nil {
			return fmt.Errorf("landmarks: %w", err)
		}
		f.trackerMu.Lock()
		frame, err := f.tracker.Update(data.Points)
		f.trackerMu.Unlock()
		if err != nil {
			return err
		}
		f.board.SetLandmarks(frame)
		f.frames.Add(1)

	case protocol.TypeGaze:
		data, err := msg.GetGazeData()
		if err != nil {
			return fmt.Errorf("gaze: %w", err)
		}
		f.board.SetGaze(data.Locked, data.Jitter)
		f.frames.Add(1)

	case protocol.TypeVolume:
		data, err := msg.GetVolumeData()
		if err != nil {
			return fmt.Errorf("volume: %w", err)
		}
		f.board.SetVolume(data.Level)

	case protocol.TypeSpectrum:
		data, err := msg.GetSpectrumData()
		if err != nil {
			return fmt.Errorf("spectrum: %w", err)
		}
		f.board.SetVolume(SpectrumLevel(data.Bins))

	case protocol.TypeTranscript:
		data, err := msg.GetTranscriptData()
		if err != nil {
			return fmt.Errorf("transcript: %w", err)
		}
		if f.onTranscript != nil {
			f.onTranscript(data.Text, data.Final)
		}

	case protocol.TypeSensorError:
		data, err := msg.GetSensorErrorData()
		if err != nil {
			return fmt.Errorf("sensor_error: %w", err)
		}
		if data.Source == "" {
			data.Source = "unknown"
		}
		if data.Recovered {
			f.board.ClearUnavailable(data.Source)
			f.logger.Info("sensor recovered", "source", data.Source)
		} else {
			f.board.SetUnavailable(data.Source, data.Message)
			f.logger.Warn("sensor unavailable", "source", data.Source, "reason", data.Message)
		}
		if f.onFault != nil {
			f.onFault(data.Source, data.Message, data.Recovered)
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
	return nil
}
