// Package recorder runs the once-per-tick session loop: it samples the sensor
// board, steps the metric engine, applies the intervention policy and records
// the snapshot until the session is stopped.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/heatmap"
	"github.com/teslashibe/go-zenith/pkg/intervention"
	"github.com/teslashibe/go-zenith/pkg/metrics"
	"github.com/teslashibe/go-zenith/pkg/protocol"
	"github.com/teslashibe/go-zenith/pkg/sensors"
	"github.com/teslashibe/go-zenith/pkg/session"
)

// Phase is the application lifecycle state.
type Phase string

const (
	PhaseReady     Phase = "READY"
	PhaseAnalyzing Phase = "ANALYZING"
	PhaseReport    Phase = "REPORT"
)

// Submitter accepts advisory text for asynchronous delivery.
type Submitter interface {
	Submit(msg string) (bool, error)
}

// Broadcaster publishes per-tick metrics to dashboard clients.
type Broadcaster interface {
	BroadcastJSON(v any) error
}

// Observer receives human-readable activity lines.
type Observer func(line string)

// Status is a point-in-time view of the recorder.
type Status struct {
	Phase     Phase            `json:"phase"`
	SessionID string           `json:"sessionId,omitempty"`
	Active    bool             `json:"active"`
	Ticks     int              `json:"ticks"`
	Latest    metrics.Snapshot `json:"latest"`
	Error     string           `json:"error,omitempty"`
}

// Recorder owns the single tick source for a session.
type Recorder struct {
	board   *sensors.Board
	agg     *session.Aggregator
	engine  *metrics.Engine
	policy  intervention.Policy
	fillers *session.FillerMatcher
	advisor Submitter
	out     Broadcaster
	observe Observer
	logger  *slog.Logger

	interval time.Duration
	now      func() time.Time

	// lifecycle serializes Start, Stop and Reset.
	lifecycle sync.Mutex

	mu        sync.Mutex
	phase     Phase
	active    bool
	started   bool
	sessionID string
	startedAt time.Time
	state     metrics.State
	iv        intervention.State
	ticks     int
	latest    metrics.Snapshot
	last      *session.Data
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a recorder reading from board.
func New(board *sensors.Board, opts ...Option) *Recorder {
	r := &Recorder{
		board:    board,
		engine:   metrics.NewEngine(),
		policy:   intervention.Default(),
		fillers:  session.NewFillerMatcher(),
		logger:   log.L(),
		interval: time.Second,
		now:      time.Now,
		phase:    PhaseReady,
		state:    metrics.InitialState(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.agg == nil {
		r.agg = session.NewAggregator(session.WithClock(r.now))
	}
	r.logger = r.logger.With("component", "recorder")
	return r
}

// Start begins a session and launches the tick loop. The loop stops when
// Stop is called or ctx is done.
func (r *Recorder) Start(ctx context.Context) (string, error) {
	return r.start(ctx, true)
}

// start begins a session. Without the loop, ticks are driven by the caller.
func (r *Recorder) start(ctx context.Context, loop bool) (string, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return "", session.ErrAlreadyActive
	}
	if err := r.board.Err(); err != nil {
		r.mu.Unlock()
		return "", err
	}

	id, err := r.agg.Start()
	if err != nil {
		r.mu.Unlock()
		return "", err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.active = true
	r.started = true
	r.sessionID = id
	r.startedAt = r.agg.StartTime()
	r.state = metrics.InitialState()
	r.iv = intervention.State{}
	r.ticks = 0
	r.latest = metrics.Snapshot{}
	r.last = nil
	r.phase = PhaseAnalyzing
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	if loop {
		go r.loop(loopCtx, done)
	} else {
		close(done)
	}

	r.logger.Info("session started", "session_id", id, "interval", r.interval)
	r.note("Analysis initiated.")
	return id, nil
}

func (r *Recorder) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick runs one metric step. Ticks never overlap: the whole step runs
// under mu, and a tick that arrives after Stop is dropped.
func (r *Recorder) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return
	}

	reading := r.board.Sample()
	snap, next := r.engine.Step(r.state, reading.Input, r.now().Sub(r.startedAt))
	if err := r.agg.RecordTick(snap); err != nil {
		r.logger.Debug("tick dropped", "error", err)
		return
	}
	r.state = next
	r.latest = snap
	r.ticks++

	var fire bool
	r.iv, fire = r.policy.Next(r.iv, snap.EmotionStability)
	if fire {
		r.intervene()
	}

	if r.out != nil {
		msg, err := protocol.NewMessage(protocol.TypeMetrics, protocol.MetricsData{
			Snapshot:         snap,
			Heatmap:          heatmap.Live(r.agg.History()),
			TrackingAccuracy: reading.TrackingAccuracy,
			EyeVector:        reading.EyeVector,
			Volume:           reading.Input.Volume,
		})
		if err == nil {
			err = r.out.BroadcastJSON(msg)
		}
		if err != nil {
			r.logger.Warn("metrics broadcast failed", "error", err)
		}
	}
}

func (r *Recorder) intervene() {
	msg := r.policy.Message
	r.logger.Info("intervention fired", "session_id", r.sessionID, "stability", r.state.Stability)
	r.note("Assistant: " + msg)

	if r.advisor == nil {
		return
	}
	ok, err := r.advisor.Submit(msg)
	switch {
	case err != nil:
		r.logger.Warn("advisory rejected", "error", err)
	case !ok:
		r.logger.Warn("advisory queue full, dropped", "message", msg)
	}
}

// Stop ends the session and returns its summary. No tick runs after Stop
// returns. Stop before any Start returns session.ErrNotStarted.
func (r *Recorder) Stop() (session.Data, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	if !r.active {
		started := r.started
		r.mu.Unlock()
		if !started {
			return session.Data{}, session.ErrNotStarted
		}
		return session.Data{}, session.ErrNotActive
	}
	r.active = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done

	data, err := r.agg.Stop()
	if err != nil {
		return session.Data{}, err
	}

	r.mu.Lock()
	r.phase = PhaseReport
	r.last = &data
	r.mu.Unlock()

	r.logger.Info("session stopped",
		"session_id", data.ID,
		"ticks", len(data.MetricsHistory),
		"duration_s", fmt.Sprintf("%.1f", data.Duration),
	)
	r.note("Analysis complete.")
	return data, nil
}

// Reset returns to READY after a report. It fails while recording.
func (r *Recorder) Reset() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return session.ErrAlreadyActive
	}
	r.phase = PhaseReady
	r.last = nil
	r.sessionID = ""
	r.ticks = 0
	r.latest = metrics.Snapshot{}
	return nil
}

// Last returns the most recent session summary, if any.
func (r *Recorder) Last() (session.Data, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last == nil {
		return session.Data{}, false
	}
	return *r.last, true
}

// History returns the snapshots recorded in the active session.
func (r *Recorder) History() []metrics.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return r.agg.History()
	}
	if r.last != nil {
		return r.last.MetricsHistory
	}
	return nil
}

// Heatmap returns one segment per tick while recording and the reduced map
// of the last session otherwise, both read under the same lock.
func (r *Recorder) Heatmap() []heatmap.Segment {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return heatmap.Live(r.agg.History())
	}
	if r.last != nil {
		return heatmap.Reduce(r.last.MetricsHistory)
	}
	return []heatmap.Segment{}
}

// Status returns the current lifecycle view.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Status{
		Phase:     r.phase,
		SessionID: r.sessionID,
		Active:    r.active,
		Ticks:     r.ticks,
		Latest:    r.latest,
	}
	if err := r.board.Err(); err != nil {
		s.Error = err.Error()
	}
	return s
}

// HandleTranscript counts filler words in final speech fragments and
// appends them to the session transcript. Interim fragments are ignored
// so that a word is counted once.
func (r *Recorder) HandleTranscript(text string, final bool) {
	if !final {
		return
	}

	for _, word := range r.fillers.Match(text) {
		if err := r.agg.RecordFiller(word); err != nil {
			r.logger.Debug("filler dropped", "word", word, "error", err)
			return
		}
		r.note("Filler word detected: " + word)
	}
	if err := r.agg.AppendTranscript(text); err != nil {
		r.logger.Debug("transcript dropped", "error", err)
	}
}

// HandleFault reports sensor failures and recoveries on the activity log.
func (r *Recorder) HandleFault(source, reason string, recovered bool) {
	if recovered {
		r.note("Sensors synchronized. System nominal.")
		return
	}
	r.note(fmt.Sprintf("Sensor fault: %s (%s)", source, reason))
}

func (r *Recorder) note(line string) {
	if r.observe != nil {
		r.observe(line)
	}
}
