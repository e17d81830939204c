package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-zenith/internal/httpc"
)

const (
	elevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	providerElevenLabs = "elevenlabs"
)

// ElevenLabs model IDs.
const (
	ModelTurboV2_5      = "eleven_turbo_v2_5"
	ModelFlashV2_5      = "eleven_flash_v2_5"
	ModelMultilingualV2 = "eleven_multilingual_v2"
)

// DefaultElevenLabsVoice is a calm preset suited to spoken advisories.
const DefaultElevenLabsVoice = "rachel"

// ElevenLabsVoices maps preset names to ElevenLabs voice IDs.
var ElevenLabsVoices = map[string]string{
	"rachel":    "21m00Tcm4TlvDq8ikWAM",
	"charlotte": "XB0fDUnXU5powFXDhCwa",
	"sarah":     "EXAVITQu4vr4xnSDxMaL",
	"adam":      "pNInz6obpgDQGcFmaJgB",
	"josh":      "TxGEqnHWrfWFTfGW9XjX",
}

// ResolveElevenLabsVoice returns the voice ID for a preset name, or name
// unchanged when it is already an ID.
func ResolveElevenLabsVoice(name string) string {
	if id, ok := ElevenLabsVoices[strings.ToLower(name)]; ok {
		return id
	}
	return name
}

// ElevenLabs implements Provider for the ElevenLabs text-to-speech API.
type ElevenLabs struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
	voiceID string
}

// NewElevenLabs creates an ElevenLabs provider. Voice accepts a preset name
// or a raw voice ID; Speed is clamped to the range ElevenLabs accepts.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.Voice = DefaultElevenLabsVoice
	cfg.Model = ModelTurboV2_5
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := elevenLabsBaseURL
	if cfg.BaseURL != "" {
		baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &ElevenLabs{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.elevenlabs"),
		baseURL: baseURL,
		voiceID: ResolveElevenLabsVoice(cfg.Voice),
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	start := time.Now()

	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": e.config.Model,
		"voice_settings": map[string]any{
			"stability":        0.6,
			"similarity_boost": 0.75,
			"speed":            min(max(e.config.Speed, 0.7), 1.2),
		},
	})
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("marshal payload: %w", err))
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", e.baseURL, e.voiceID, e.outputFormatParam())
	resp, err := withRetry(ctx, e.config, e.logger, providerElevenLabs, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("xi-api-key", e.config.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", e.outputFormat().MIME())

		resp, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			return nil, parseElevenLabsError(resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerElevenLabs, fmt.Errorf("read response: %w", err))
	}
	latency := time.Since(start).Milliseconds()

	e.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"model", e.config.Model,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    e.outputFormat(),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health checks API connectivity and key validity.
func (e *ElevenLabs) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/user", nil)
	if err != nil {
		return WrapError(providerElevenLabs, err)
	}
	req.Header.Set("xi-api-key", e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return WrapError(providerElevenLabs, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseElevenLabsError(resp)
	}
	return nil
}

// Close releases idle connections.
func (e *ElevenLabs) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// Name identifies the provider in chain logs and errors.
func (e *ElevenLabs) Name() string {
	return providerElevenLabs
}

// VoiceID returns the resolved voice ID.
func (e *ElevenLabs) VoiceID() string {
	return e.voiceID
}

func (e *ElevenLabs) outputFormatParam() string {
	if e.config.Format == EncodingPCM24 {
		return "pcm_24000"
	}
	return "mp3_44100_128"
}

func (e *ElevenLabs) outputFormat() AudioFormat {
	if e.config.Format == EncodingPCM24 {
		return AudioFormat{Encoding: EncodingPCM24, SampleRate: 24000, Channels: 1, BitDepth: 16}
	}
	return AudioFormat{Encoding: EncodingMP3, SampleRate: 44100, Channels: 1}
}

func parseElevenLabsError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
		Provider:   providerElevenLabs,
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Detail.Message != "" {
		apiErr.Message = errResp.Detail.Message
		apiErr.Code = errResp.Detail.Status
	}
	return apiErr
}

var _ Provider = (*ElevenLabs)(nil)
