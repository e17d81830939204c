package sensors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/protocol"
)

func TestFeed_Landmarks(t *testing.T) {
	feed := NewFeed(NewBoard(), WithLogger(log.Discard()))

	msg, err := protocol.NewLandmarksMessage(mesh())
	require.NoError(t, err)
	require.NoError(t, feed.Handle(msg))

	r := feed.Board().Sample()
	assert.True(t, r.Face)
	assert.True(t, r.Input.GazeLock)
	assert.InDelta(t, 0.05, r.TrackingAccuracy, 1e-9)
	assert.Equal(t, uint64(1), feed.Frames())
}

func TestFeed_ShortLandmarksRejected(t *testing.T) {
	feed := NewFeed(NewBoard(), WithLogger(log.Discard()))

	msg, _ := protocol.NewLandmarksMessage(make([]protocol.Point, 10))
	err := feed.Handle(msg)
	assert.ErrorIs(t, err, ErrShortFrame)
	assert.Zero(t, feed.Frames())
}

func TestFeed_AudioAndGaze(t *testing.T) {
	feed := NewFeed(NewBoard(), WithLogger(log.Discard()))

	gaze, _ := protocol.NewGazeMessage(false, 0.004)
	require.NoError(t, feed.Handle(gaze))

	vol, _ := protocol.NewVolumeMessage(42)
	require.NoError(t, feed.Handle(vol))

	r := feed.Board().Sample()
	assert.False(t, r.Input.GazeLock)
	assert.Equal(t, 0.004, r.Input.Jitter)
	assert.Equal(t, 42.0, r.Input.Volume)

	spec, _ := protocol.NewMessage(protocol.TypeSpectrum, protocol.SpectrumData{Bins: []int{255, 255}})
	require.NoError(t, feed.Handle(spec))
	assert.Equal(t, 100.0, feed.Board().Sample().Input.Volume)
}

func TestFeed_Transcript(t *testing.T) {
	var got []string
	feed := NewFeed(NewBoard(),
		WithLogger(log.Discard()),
		WithTranscriptHandler(func(text string, final bool) {
			if final {
				got = append(got, text)
			}
		}),
	)

	interim, _ := protocol.NewTranscriptMessage("umm", false)
	final, _ := protocol.NewTranscriptMessage("umm hello", true)
	require.NoError(t, feed.Handle(interim))
	require.NoError(t, feed.Handle(final))

	assert.Equal(t, []string{"umm hello"}, got)
}

func TestFeed_SensorFaultAndRecovery(t *testing.T) {
	var events []bool
	feed := NewFeed(NewBoard(),
		WithLogger(log.Discard()),
		WithFaultHandler(func(source, reason string, recovered bool) {
			events = append(events, recovered)
		}),
	)

	fault, _ := protocol.NewSensorErrorMessage("camera", "HARDWARE_FAILURE")
	require.NoError(t, feed.Handle(fault))
	assert.ErrorIs(t, feed.Board().Err(), ErrUnavailable)

	recovered, _ := protocol.NewMessage(protocol.TypeSensorError, protocol.SensorErrorData{Source: "camera", Recovered: true})
	require.NoError(t, feed.Handle(recovered))
	assert.NoError(t, feed.Board().Err())

	assert.Equal(t, []bool{false, true}, events)
}

func TestFeed_UnknownType(t *testing.T) {
	feed := NewFeed(NewBoard(), WithLogger(log.Discard()))

	msg, _ := protocol.NewMessage(protocol.TypeReport, nil)
	err := feed.Handle(msg)
	assert.True(t, errors.Is(err, ErrUnknownType), "got %v", err)
}
