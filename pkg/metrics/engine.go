package metrics

import (
	"math/rand/v2"
	"time"

	"github.com/teslashibe/go-zenith/pkg/signal"
)

// Rand is the random source for the heart-rate proxy.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Config holds the tunable constants of the engine.
type Config struct {
	JitterScale      float64 // jitter -> percentage penalty
	GazeLossPenalty  float64 // fixed deduction when gaze lock is lost
	ConfidenceGain   float64 // per tick with gaze lock
	ConfidenceDecay  float64 // per tick without gaze lock
	ConfidenceMin    float64
	ConfidenceMax    float64
	BPMJitter        int     // uniform draw in [0, BPMJitter)
	BPMStressBelow   float64 // stability below this elevates bpm
	BPMStressElevate int
}

// DefaultConfig returns the standard engine constants.
func DefaultConfig() Config {
	return Config{
		JitterScale:      5000,
		GazeLossPenalty:  15,
		ConfidenceGain:   2,
		ConfidenceDecay:  3,
		ConfidenceMin:    10,
		ConfidenceMax:    100,
		BPMJitter:        8,
		BPMStressBelow:   50,
		BPMStressElevate: 15,
	}
}

// Engine converts inputs into snapshots. It holds no rolling state itself;
// callers pass the previous State and keep the returned one.
type Engine struct {
	config Config
	rand   Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the random source used for bpm jitter.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithConfig overrides the engine constants.
func WithConfig(c Config) Option {
	return func(e *Engine) { e.config = c }
}

// NewEngine creates an engine with default constants and a time-seeded source.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		seed := uint64(time.Now().UnixNano())
		e.rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return e
}

// Modifier returns the per-tick raw stability estimate before smoothing.
func (e *Engine) Modifier(in Input) float64 {
	m := 100 - in.Jitter*e.config.JitterScale
	if !in.GazeLock {
		m -= e.config.GazeLossPenalty
	}
	if m < 0 {
		return 0
	}
	return m
}

// Step computes the snapshot for one tick and the state for the next one.
func (e *Engine) Step(prev State, in Input, elapsed time.Duration) (Snapshot, State) {
	stability := signal.Smooth(prev.Stability, e.Modifier(in), signal.StabilityAlpha)
	stability = signal.Clamp(stability, 0, 100)

	confidence := prev.Confidence - e.config.ConfidenceDecay
	if in.GazeLock {
		confidence = prev.Confidence + e.config.ConfidenceGain
	}
	confidence = signal.Clamp(confidence, e.config.ConfidenceMin, e.config.ConfidenceMax)

	bpm := RestingBPM
	if e.config.BPMJitter > 0 {
		bpm += e.rand.IntN(e.config.BPMJitter)
	}
	if stability < e.config.BPMStressBelow {
		bpm += e.config.BPMStressElevate
	}

	snap := Snapshot{
		Timestamp:        Elapsed(elapsed),
		Confidence:       confidence,
		EyeContact:       in.GazeLock,
		BPM:              bpm,
		Emotion:          Classify(stability),
		EmotionStability: stability,
	}
	return snap, State{Stability: stability, Confidence: confidence}
}
