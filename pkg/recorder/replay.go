package recorder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-zenith/pkg/metrics"
	"github.com/teslashibe/go-zenith/pkg/sensors"
	"github.com/teslashibe/go-zenith/pkg/session"
)

// Script is a recorded sequence of sensor readings replayed offline.
type Script struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Seed         uint64        `yaml:"seed"`
	Samples      []Sample      `yaml:"samples"`
}

// Sample is the sensor state for one or more consecutive ticks.
type Sample struct {
	Gaze   bool    `yaml:"gaze"`
	Jitter float64 `yaml:"jitter"`
	Volume float64 `yaml:"volume"`
	Repeat int     `yaml:"repeat"` // ticks to hold this sample, default 1
	Say    string  `yaml:"say"`    // final transcript heard on the first tick
}

// LoadScript reads a YAML (or JSON) script.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("recorder: read script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("recorder: parse script: %w", err)
	}
	return s, nil
}

// Ticks returns the number of ticks the script produces.
func (s Script) Ticks() int {
	n := 0
	for _, smp := range s.Samples {
		n += max(1, smp.Repeat)
	}
	return n
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Replay runs script through a fresh recorder without a timer and returns
// the session summary. Time advances by the script tick interval per tick;
// a non-zero seed makes the heart-rate draw reproducible. Options may add
// an advisor, observer or policy; clock and interval are owned by Replay.
func Replay(ctx context.Context, script Script, opts ...Option) (session.Data, error) {
	interval := script.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	clock := &stepClock{t: time.Unix(0, 0)}
	board := sensors.NewBoard()

	all := append([]Option{}, opts...)
	if script.Seed != 0 {
		all = append(all, WithEngine(metrics.NewEngine(
			metrics.WithRand(rand.New(rand.NewPCG(script.Seed, script.Seed))),
		)))
	}
	all = append(all, WithClock(clock.now), WithTickInterval(interval))
	r := New(board, all...)

	if _, err := r.start(ctx, false); err != nil {
		return session.Data{}, err
	}

	for _, smp := range script.Samples {
		if err := ctx.Err(); err != nil {
			_, _ = r.Stop()
			return session.Data{}, err
		}

		board.SetGaze(smp.Gaze, smp.Jitter)
		board.SetVolume(smp.Volume)
		for i := 0; i < max(1, smp.Repeat); i++ {
			clock.advance(interval)
			if i == 0 && smp.Say != "" {
				r.HandleTranscript(smp.Say, true)
			}
			r.tick()
		}
	}

	return r.Stop()
}
