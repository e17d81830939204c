package advice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/teslashibe/go-zenith/internal/httpc"
	"github.com/teslashibe/go-zenith/internal/log"
)

// DefaultModel is the Gemini model used for critiques.
const DefaultModel = "gemini-3-flash-preview"

// ErrNoAPIKey is returned when no Gemini API key is configured.
var ErrNoAPIKey = errors.New("advice: API key required")

// Config holds Gemini generator configuration.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	TopP        float32
	TopK        float32
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Option configures a Gemini generator.
type Option func(*Config)

// WithAPIKey sets the Gemini API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the generator logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the sampling settings the critique prompt is tuned for.
func DefaultConfig() *Config {
	return &Config{
		Model:       DefaultModel,
		Temperature: 0.7,
		TopP:        1,
		TopK:        1,
		Timeout:     30 * time.Second,
		Logger:      log.L(),
	}
}

// contentModel is the part of genai.Models the generator uses.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates critiques with the Gemini API.
type Gemini struct {
	models contentModel
	config *Config
	logger *slog.Logger
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpc.NewClient(cfg.Timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("advice: create genai client: %w", err)
	}

	return newGemini(client.Models, cfg), nil
}

func newGemini(models contentModel, cfg *Config) *Gemini {
	return &Gemini{
		models: models,
		config: cfg,
		logger: cfg.Logger.With("component", "advice.gemini", "model", cfg.Model),
	}
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, s Summary) (string, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.config.Model,
		[]*genai.Content{genai.NewContentFromText(Prompt(s), genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(g.config.Temperature),
			TopP:        genai.Ptr(g.config.TopP),
			TopK:        genai.Ptr(g.config.TopK),
		},
	)
	if err != nil {
		return "", fmt.Errorf("advice: generate: %w", err)
	}

	text := resp.Text()
	g.logger.Debug("advice generated", "chars", len(text), "latency_ms", time.Since(start).Milliseconds())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

var _ Generator = (*Gemini)(nil)
