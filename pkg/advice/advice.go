// Package advice produces the short written critique shown on the report.
package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/session"
)

// Canned texts used when generation fails or returns nothing.
const (
	OfflineText = "Analysis system offline. Your metrics speak for themselves."
	EmptyText   = "Exceptional performance. Maintain your current pace."
)

// ErrEmptyResponse is returned by a generator that produced no text.
var ErrEmptyResponse = errors.New("advice: empty response")

// Summary is the metric view a generator is allowed to see.
type Summary struct {
	EyeContactPercentage float64        `json:"eyeContactPercentage"`
	AvgConfidence        float64        `json:"avgConfidence"`
	AvgEmotionStability  float64        `json:"avgEmotionStability"`
	FillerWords          map[string]int `json:"fillerWords"`
	AvgBPM               float64        `json:"avgBpm"`
}

// NewSummary copies the generator inputs out of a session summary.
func NewSummary(d session.Data) Summary {
	fillers := make(map[string]int, len(d.FillerWords))
	for w, n := range d.FillerWords {
		fillers[w] = n
	}
	return Summary{
		EyeContactPercentage: d.EyeContactPercentage,
		AvgConfidence:        d.AvgConfidence,
		AvgEmotionStability:  d.AvgEmotionStability,
		FillerWords:          fillers,
		AvgBPM:               d.AvgBPM,
	}
}

// Generator produces a critique for a session.
type Generator interface {
	Generate(ctx context.Context, s Summary) (string, error)
}

// Prompt renders the generation prompt for s.
func Prompt(s Summary) string {
	fillers := s.FillerWords
	if fillers == nil {
		fillers = map[string]int{}
	}
	fillerJSON, _ := json.Marshal(fillers)

	var b strings.Builder
	b.WriteString("Analyze this public speaking session and provide a brief professional advice:\n")
	fmt.Fprintf(&b, "- Eye Contact: %.1f%%\n", s.EyeContactPercentage)
	fmt.Fprintf(&b, "- Avg Confidence: %.1f%%\n", s.AvgConfidence)
	fmt.Fprintf(&b, "- Emotion Stability: %.1f%%\n", s.AvgEmotionStability)
	fmt.Fprintf(&b, "- Filler Words: %s\n", fillerJSON)
	fmt.Fprintf(&b, "- Avg BPM: %d\n", int(math.Round(s.AvgBPM)))
	b.WriteString("\nProvide a 3-sentence professional critique focusing on confidence and emotional presence. ")
	b.WriteString("Include one specific recommendation based on the stability score.")
	return b.String()
}

// Fallback wraps a Generator so that Generate never fails: errors yield
// OfflineText and blank output yields EmptyText.
type Fallback struct {
	next   Generator
	logger *slog.Logger
}

// WithFallback wraps g. A nil g always returns OfflineText.
func WithFallback(g Generator, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = log.L()
	}
	return &Fallback{next: g, logger: logger.With("component", "advice.fallback")}
}

// Generate implements Generator. The returned error is always nil.
func (f *Fallback) Generate(ctx context.Context, s Summary) (string, error) {
	if f.next == nil {
		return OfflineText, nil
	}

	text, err := f.next.Generate(ctx, s)
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return EmptyText, nil
	case err != nil:
		f.logger.Warn("advice generation failed", "error", err)
		return OfflineText, nil
	case strings.TrimSpace(text) == "":
		return EmptyText, nil
	}
	return strings.TrimSpace(text), nil
}

var _ Generator = (*Fallback)(nil)
