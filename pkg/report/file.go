package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// PNGFileName returns the export name for a card generated at t.
func PNGFileName(t time.Time) string {
	return fmt.Sprintf("Zenith_Neural_Insight_Report_%d.png", t.UnixMilli())
}

// PNGExporter writes report cards into Dir.
type PNGExporter struct {
	Dir string
	Now func() time.Time

	render func(io.Writer, *Report) error
}

// Export renders r and writes it to Dir. It returns the file path.
func (e PNGExporter) Export(_ context.Context, r *Report) (string, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create export dir: %w", err)
	}

	path := filepath.Join(e.Dir, PNGFileName(now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", path, err)
	}
	render := e.render
	if render == nil {
		render = RenderPNG
	}
	if err := render(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("report: close %s: %w", path, err)
	}
	return path, nil
}

// JSONExporter writes the full report, snapshot history included, as
// <id>.json into Dir.
type JSONExporter struct {
	Dir string
}

// Export implements Exporter.
func (e JSONExporter) Export(_ context.Context, r *Report) (string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create export dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal: %w", err)
	}

	path := filepath.Join(e.Dir, r.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

var (
	_ Exporter = PNGExporter{}
	_ Exporter = JSONExporter{}
)
