package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-zenith/pkg/metrics"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAggregator() (*Aggregator, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	return NewAggregator(WithClock(clock.Now)), clock
}

func snap(ts int64, conf float64, eye bool, bpm int, stab float64) metrics.Snapshot {
	return metrics.Snapshot{
		Timestamp:        ts,
		Confidence:       conf,
		EyeContact:       eye,
		BPM:              bpm,
		Emotion:          metrics.Classify(stab),
		EmotionStability: stab,
	}
}

func TestStop_BeforeStart(t *testing.T) {
	a, _ := newTestAggregator()

	_, err := a.Stop()
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestStop_Twice(t *testing.T) {
	a, _ := newTestAggregator()
	_, err := a.Start()
	require.NoError(t, err)

	_, err = a.Stop()
	require.NoError(t, err)

	_, err = a.Stop()
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestStart_WhileActive(t *testing.T) {
	a, _ := newTestAggregator()
	_, err := a.Start()
	require.NoError(t, err)

	_, err = a.Start()
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestStop_EmptySession(t *testing.T) {
	a, clock := newTestAggregator()
	_, err := a.Start()
	require.NoError(t, err)
	clock.Advance(2500 * time.Millisecond)

	data, err := a.Stop()
	require.NoError(t, err)

	assert.InDelta(t, 2.5, data.Duration, 1e-9)
	assert.Zero(t, data.AvgConfidence)
	assert.Zero(t, data.EyeContactPercentage)
	assert.Zero(t, data.AvgBPM)
	assert.Zero(t, data.AvgEmotionStability)
	assert.Equal(t, metrics.EmotionDefault, data.DominantEmotion)
	assert.Empty(t, data.MetricsHistory)
	assert.Empty(t, data.FillerWords)
}

func TestRecord_WithoutSession(t *testing.T) {
	a, _ := newTestAggregator()

	assert.ErrorIs(t, a.RecordTick(snap(0, 75, true, 72, 85)), ErrNotActive)
	assert.ErrorIs(t, a.RecordFiller("umm"), ErrNotActive)
	assert.ErrorIs(t, a.AppendTranscript("hello"), ErrNotActive)
}

func TestStop_AveragesMatchManualMeans(t *testing.T) {
	a, clock := newTestAggregator()
	_, err := a.Start()
	require.NoError(t, err)

	var (
		sumConf, sumBPM, sumStab float64
		eye                      int
		ticks                    []metrics.Snapshot
	)
	for i := 0; i < 10; i++ {
		s := snap(int64(i*1000), float64(60+i*3), i%3 != 0, 72+i, 30+float64(i)*6.5)
		ticks = append(ticks, s)
		require.NoError(t, a.RecordTick(s))

		sumConf += s.Confidence
		sumBPM += float64(s.BPM)
		sumStab += s.EmotionStability
		if s.EyeContact {
			eye++
		}
		clock.Advance(time.Second)
	}

	data, err := a.Stop()
	require.NoError(t, err)

	const eps = 1e-9
	assert.InDelta(t, sumConf/10, data.AvgConfidence, eps)
	assert.InDelta(t, sumBPM/10, data.AvgBPM, eps)
	assert.InDelta(t, sumStab/10, data.AvgEmotionStability, eps)
	assert.InDelta(t, float64(eye)/10*100, data.EyeContactPercentage, eps)
	assert.InDelta(t, 10.0, data.Duration, eps)
	assert.Equal(t, ticks[9].Emotion, data.DominantEmotion)
	assert.Equal(t, ticks, data.MetricsHistory)
}

func TestRecordFiller_Counts(t *testing.T) {
	a, _ := newTestAggregator()
	_, err := a.Start()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, a.RecordFiller("umm"))
	}
	require.NoError(t, a.RecordFiller("like"))

	data, err := a.Stop()
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"umm": 3, "like": 1}, data.FillerWords)
	_, seen := data.FillerWords["basically"]
	assert.False(t, seen, "unseen words must be absent")
	assert.Equal(t, 4, data.TotalFillers())
}

func TestStart_ClearsPreviousSession(t *testing.T) {
	a, _ := newTestAggregator()

	_, err := a.Start()
	require.NoError(t, err)
	require.NoError(t, a.RecordTick(snap(0, 80, true, 72, 90)))
	require.NoError(t, a.RecordFiller("oh"))
	require.NoError(t, a.AppendTranscript("oh well"))
	first, err := a.Stop()
	require.NoError(t, err)

	_, err = a.Start()
	require.NoError(t, err)
	assert.Empty(t, a.History())
	assert.Empty(t, a.Fillers())
	require.NoError(t, a.RecordTick(snap(0, 20, false, 90, 10)))
	second, err := a.Stop()
	require.NoError(t, err)

	// the first summary is untouched by the second session
	require.Len(t, first.MetricsHistory, 1)
	assert.Equal(t, 80.0, first.MetricsHistory[0].Confidence)
	assert.Equal(t, "oh well", first.Transcript)
	assert.Empty(t, second.Transcript)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStop_HistoryIsClipped(t *testing.T) {
	a, _ := newTestAggregator()
	_, err := a.Start()
	require.NoError(t, err)
	require.NoError(t, a.RecordTick(snap(0, 50, true, 72, 50)))
	require.NoError(t, a.RecordTick(snap(1000, 52, true, 72, 55)))

	data, err := a.Stop()
	require.NoError(t, err)
	assert.Equal(t, len(data.MetricsHistory), cap(data.MetricsHistory))
}

func TestAppendTranscript(t *testing.T) {
	a, _ := newTestAggregator()
	_, err := a.Start()
	require.NoError(t, err)

	require.NoError(t, a.AppendTranscript("  so basically "))
	require.NoError(t, a.AppendTranscript(""))
	require.NoError(t, a.AppendTranscript("we ship it"))

	data, err := a.Stop()
	require.NoError(t, err)
	assert.Equal(t, "so basically we ship it", data.Transcript)
}
