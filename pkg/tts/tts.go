// Package tts turns advisory text into audio that dashboard clients can play.
//
// Providers implement the Provider interface so the advisory speech sink does
// not depend on a particular vendor. A Chain fails over between them:
//
//	openai, _ := tts.NewOpenAI(tts.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	eleven, _ := tts.NewElevenLabs(tts.WithAPIKey(os.Getenv("ELEVENLABS_API_KEY")))
//	chain, _ := tts.NewChain(logger, openai, eleven)
//	defer chain.Close()
//
//	result, _ := chain.Synthesize(ctx, "Take a deep breath.")
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	Audio     []byte
	Format    AudioFormat
	Duration  time.Duration // estimated, zero when unknown
	CharCount int
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int
}

// MIME returns the content type browsers expect for the encoding.
func (f AudioFormat) MIME() string {
	switch f.Encoding {
	case EncodingPCM24:
		return "audio/pcm"
	case EncodingOpus:
		return "audio/opus"
	case EncodingWAV:
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}

// Encoding represents audio encoding types.
type Encoding string

const (
	EncodingMP3   Encoding = "mp3"
	EncodingOpus  Encoding = "opus"
	EncodingWAV   Encoding = "wav"
	EncodingPCM24 Encoding = "pcm" // 24kHz mono PCM16
)
