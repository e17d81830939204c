// Package report turns a finished session into the decorated report shown
// to the user and exports it to files or Google Docs.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-zenith/pkg/advice"
	"github.com/teslashibe/go-zenith/pkg/heatmap"
	"github.com/teslashibe/go-zenith/pkg/session"
)

// Rank is the headline grade of a session.
type Rank string

const (
	RankMaster       Rank = "ZENITH MASTER"
	RankProfessional Rank = "PROFESSIONAL"
	RankInitiate     Rank = "INITIATE"
)

// CleanSignal is shown in place of top fillers when none were heard.
const CleanSignal = "CLEAN_SIGNAL"

// RankFor grades a session summary.
func RankFor(d session.Data) Rank {
	switch {
	case d.AvgConfidence > 80 && d.EyeContactPercentage > 85 && d.AvgEmotionStability > 80:
		return RankMaster
	case d.AvgConfidence > 50:
		return RankProfessional
	default:
		return RankInitiate
	}
}

// Report is a session summary decorated for display and export.
type Report struct {
	ID           string            `json:"id"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	Session      session.Data      `json:"session"`
	Segments     []heatmap.Segment `json:"segments"`
	Rank         Rank              `json:"rank"`
	TotalFillers int               `json:"totalFillers"`
	TopFillers   []string          `json:"topFillers"`
	Advice       string            `json:"advice"`
}

// Build decorates d. When gen is non-nil it is asked for advice; a failing
// generator yields advice.OfflineText. Build never modifies d.
func Build(ctx context.Context, d session.Data, gen advice.Generator) *Report {
	r := &Report{
		ID:           uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Session:      d,
		Segments:     heatmap.Reduce(d.MetricsHistory),
		Rank:         RankFor(d),
		TotalFillers: d.TotalFillers(),
		TopFillers:   TopFillers(d.FillerWords, 3),
	}

	if gen != nil {
		text, err := gen.Generate(ctx, advice.NewSummary(d))
		if err != nil {
			text = advice.OfflineText
		}
		r.Advice = text
	}
	return r
}

// TopFillers returns up to n filler words, most frequent first, ties broken
// alphabetically.
func TopFillers(counts map[string]int, n int) []string {
	words := make([]string, 0, len(counts))
	for w, c := range counts {
		if c > 0 {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// FillerLabel renders the top fillers the way the report card shows them.
func (r *Report) FillerLabel() string {
	if len(r.TopFillers) == 0 {
		return CleanSignal
	}
	return strings.Join(r.TopFillers, " / ")
}

// Lines returns the report body as plain text lines.
func (r *Report) Lines() []string {
	d := r.Session
	lines := []string{
		"RANK: " + string(r.Rank),
		"SESSION: " + d.ID,
		fmt.Sprintf("DURATION: %.1fs", d.Duration),
		fmt.Sprintf("EYE CONTACT: %.1f%%", d.EyeContactPercentage),
		fmt.Sprintf("CONFIDENCE: %.1f%%", d.AvgConfidence),
		fmt.Sprintf("EMOTION STABILITY: %.1f%%", d.AvgEmotionStability),
		fmt.Sprintf("AVG BPM: %d", int(math.Round(d.AvgBPM))),
		fmt.Sprintf("DOMINANT EMOTION: %s", d.DominantEmotion),
		fmt.Sprintf("VOCAL FILLERS: %d (%s)", r.TotalFillers, r.FillerLabel()),
	}
	if r.Advice != "" {
		lines = append(lines, "", "ADVICE: "+r.Advice)
	}
	return lines
}

// Text returns the report as a plain text document.
func (r *Report) Text() string {
	return "ZENITH NEURAL INSIGHT REPORT\n\n" + strings.Join(r.Lines(), "\n") + "\n"
}

// Exporter writes a report somewhere and returns where it went.
type Exporter interface {
	Export(ctx context.Context, r *Report) (string, error)
}
