package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-zenith/pkg/metrics"
	"github.com/teslashibe/go-zenith/pkg/signal"
)

// Aggregator collects the snapshots and filler counts of the active session.
// It is goroutine-safe.
type Aggregator struct {
	mu sync.Mutex

	now func() time.Time

	active     bool
	id         string
	startTime  time.Time
	history    []metrics.Snapshot
	fillers    map[string]int
	transcript strings.Builder
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an idle aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start begins a new session, discarding any previous sequence.
func (a *Aggregator) Start() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return "", ErrAlreadyActive
	}

	a.active = true
	a.id = uuid.NewString()
	a.startTime = a.now()
	// fresh backing array: a previous Data keeps its own history
	a.history = make([]metrics.Snapshot, 0, 64)
	a.fillers = make(map[string]int)
	a.transcript.Reset()
	return a.id, nil
}

// StartTime returns when the active session began.
func (a *Aggregator) StartTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startTime
}

// Active reports whether a session is running.
func (a *Aggregator) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// RecordTick appends a snapshot.
func (a *Aggregator) RecordTick(s metrics.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return ErrNotActive
	}
	a.history = append(a.history, s)
	return nil
}

// RecordFiller increments the count for word.
func (a *Aggregator) RecordFiller(word string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return ErrNotActive
	}
	a.fillers[word]++
	return nil
}

// AppendTranscript adds a final speech fragment to the session transcript.
func (a *Aggregator) AppendTranscript(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return ErrNotActive
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if a.transcript.Len() > 0 {
		a.transcript.WriteByte(' ')
	}
	a.transcript.WriteString(text)
	return nil
}

// History returns a copy of the snapshots recorded so far.
func (a *Aggregator) History() []metrics.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]metrics.Snapshot(nil), a.history...)
}

// Fillers returns a copy of the filler counts recorded so far.
func (a *Aggregator) Fillers() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.fillers))
	for k, v := range a.fillers {
		out[k] = v
	}
	return out
}

// Stop ends the session and returns its summary.
// Stop before Start, or a second Stop, returns ErrNotStarted.
func (a *Aggregator) Stop() (Data, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return Data{}, ErrNotStarted
	}
	a.active = false

	duration := a.now().Sub(a.startTime).Seconds()
	if duration < 0 {
		duration = 0
	}

	// capacity-clipped so nobody can append into our array
	history := a.history[:len(a.history):len(a.history)]
	conf, eye, bpm, stab, dominant := Summarize(history)

	fillers := make(map[string]int, len(a.fillers))
	for k, v := range a.fillers {
		fillers[k] = v
	}

	return Data{
		ID:                   a.id,
		Duration:             duration,
		FillerWords:          fillers,
		AvgConfidence:        signal.Clamp(conf, 0, 100),
		EyeContactPercentage: signal.Clamp(eye, 0, 100),
		AvgBPM:               bpm,
		AvgEmotionStability:  signal.Clamp(stab, 0, 100),
		MetricsHistory:       history,
		DominantEmotion:      dominant,
		Transcript:           a.transcript.String(),
	}, nil
}
