package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Chain implements Provider by trying providers in order until one speaks.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a failover chain. At least one provider is required.
func NewChain(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		providers: providers,
		logger:    logger.With("component", "tts.chain"),
	}, nil
}

// Synthesize returns the first successful result. Empty text and a
// cancelled context stop the chain immediately.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	chainErr := &ChainError{}

	for i, p := range c.providers {
		result, err := p.Synthesize(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider spoke", "provider", ProviderName(p), "skipped", i)
			}
			return result, nil
		}
		if errors.Is(err, ErrEmptyText) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Warn("provider failed", "provider", ProviderName(p), "error", err)
		chainErr.Failures = append(chainErr.Failures, Failure{Provider: ProviderName(p), Err: err})
	}

	return nil, chainErr
}

// Health returns nil if any provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	chainErr := &ChainError{}
	for _, p := range c.providers {
		err := p.Health(ctx)
		if err == nil {
			return nil
		}
		chainErr.Failures = append(chainErr.Failures, Failure{Provider: ProviderName(p), Err: err})
	}
	return chainErr
}

// Close closes every provider and joins their errors.
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Providers returns the provider names in failover order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = ProviderName(p)
	}
	return names
}

// ProviderName returns p's Name when it has one, otherwise its Go type.
func ProviderName(p Provider) string {
	if n, ok := p.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}

// Failure is one provider's error inside a ChainError.
type Failure struct {
	Provider string
	Err      error
}

// ChainError reports every provider that failed.
type ChainError struct {
	Failures []Failure
}

func (e *ChainError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Provider + ": " + f.Err.Error()
	}
	return fmt.Sprintf("tts chain: %d providers failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes every provider error to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

var _ Provider = (*Chain)(nil)
