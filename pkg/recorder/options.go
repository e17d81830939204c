package recorder

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-zenith/pkg/intervention"
	"github.com/teslashibe/go-zenith/pkg/metrics"
	"github.com/teslashibe/go-zenith/pkg/session"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithTickInterval sets the tick period. Non-positive values are ignored.
func WithTickInterval(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithEngine sets the metric engine.
func WithEngine(e *metrics.Engine) Option {
	return func(r *Recorder) { r.engine = e }
}

// WithPolicy sets the intervention policy.
func WithPolicy(p intervention.Policy) Option {
	return func(r *Recorder) { r.policy = p }
}

// WithFillerMatcher sets the filler vocabulary.
func WithFillerMatcher(m *session.FillerMatcher) Option {
	return func(r *Recorder) { r.fillers = m }
}

// WithAdvisor routes intervention prompts to s.
func WithAdvisor(s Submitter) Option {
	return func(r *Recorder) { r.advisor = s }
}

// WithBroadcaster publishes a metrics message on every tick.
func WithBroadcaster(b Broadcaster) Option {
	return func(r *Recorder) { r.out = b }
}

// WithObserver receives activity log lines.
func WithObserver(fn Observer) Option {
	return func(r *Recorder) { r.observe = fn }
}

// WithLogger sets the recorder logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithClock sets the time source used for elapsed time and durations.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}
