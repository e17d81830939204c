package advice

import (
	"context"
	"sync"
)

// Mock implements Generator for testing.
type Mock struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns EmptyText.
	GenerateFunc func(ctx context.Context, s Summary) (string, error)

	mu    sync.Mutex
	calls []Summary
}

// Generate records s and calls GenerateFunc.
func (m *Mock) Generate(ctx context.Context, s Summary) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, s)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, s)
	}
	return EmptyText, nil
}

// Calls returns the summaries passed to Generate.
func (m *Mock) Calls() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Summary, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Generator = (*Mock)(nil)
