// Package config loads go-zenith configuration from defaults, an optional
// YAML file, a .env file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the zenith service.
type Config struct {
	Server  Server  `yaml:"server"`
	Session Session `yaml:"session"`
	Sensors Sensors `yaml:"sensors"`
	Advice  Advice  `yaml:"advice"`
	TTS     TTS     `yaml:"tts"`
	Export  Export  `yaml:"export"`
	Log     Log     `yaml:"log"`
}

// Server configures the dashboard and ingest HTTP server.
type Server struct {
	Port      string `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// Session configures the tick loop and intervention rule.
type Session struct {
	TickInterval       time.Duration `yaml:"tick_interval"`
	InterventionBelow  float64       `yaml:"intervention_below"`
	InterventionTicks  int           `yaml:"intervention_ticks"`
	InterventionPrompt string        `yaml:"intervention_prompt"`
}

// Sensors configures the optional outbound landmark feed.
type Sensors struct {
	FeedURL string `yaml:"feed_url"` // ws:// URL of an external landmark tracker
}

// Advice configures the session critique generator.
type Advice struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// TTS configures spoken advisories. OpenAI is tried first and ElevenLabs is
// the fallback; either key alone is enough.
type TTS struct {
	APIKey           string `yaml:"api_key"`
	Voice            string `yaml:"voice"`
	ElevenLabsAPIKey string `yaml:"elevenlabs_api_key"`
	ElevenLabsVoice  string `yaml:"elevenlabs_voice"`
}

// Export configures report export sinks.
type Export struct {
	Dir                string `yaml:"dir"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleTokenPath    string `yaml:"google_token_path"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Server: Server{
			Port:      "8080",
			StaticDir: "./web",
		},
		Session: Session{
			TickInterval:       time.Second,
			InterventionBelow:  35,
			InterventionTicks:  3,
			InterventionPrompt: "Take a deep breath. Recalibrating focus.",
		},
		Advice: Advice{
			Model:   "gemini-3-flash-preview",
			Timeout: 30 * time.Second,
		},
		TTS: TTS{
			Voice:           "shimmer",
			ElevenLabsVoice: "rachel",
		},
		Export: Export{
			Dir: "./outputs",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load builds a Config. path may be empty; when set the YAML file must exist.
// A missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ZENITH_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("config: load .env: %w", err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.StaticDir = getEnv("STATIC_DIR", c.Server.StaticDir)
	c.Session.TickInterval = getEnvAsDuration("TICK_INTERVAL", c.Session.TickInterval)
	c.Sensors.FeedURL = getEnv("LANDMARK_FEED_URL", c.Sensors.FeedURL)
	c.Advice.APIKey = getEnv("GOOGLE_API_KEY", c.Advice.APIKey)
	c.Advice.Model = getEnv("ADVICE_MODEL", c.Advice.Model)
	c.TTS.APIKey = getEnv("OPENAI_API_KEY", c.TTS.APIKey)
	c.TTS.Voice = getEnv("TTS_VOICE", c.TTS.Voice)
	c.TTS.ElevenLabsAPIKey = getEnv("ELEVENLABS_API_KEY", c.TTS.ElevenLabsAPIKey)
	c.TTS.ElevenLabsVoice = getEnv("ELEVENLABS_VOICE", c.TTS.ElevenLabsVoice)
	c.Export.Dir = getEnv("EXPORT_DIR", c.Export.Dir)
	c.Export.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", c.Export.GoogleClientID)
	c.Export.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.Export.GoogleClientSecret)
	c.Export.GoogleTokenPath = getEnv("GOOGLE_TOKEN_PATH", c.Export.GoogleTokenPath)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Session.InterventionTicks = getEnvAsInt("INTERVENTION_TICKS", c.Session.InterventionTicks)
	c.Session.InterventionBelow = getEnvAsFloat("INTERVENTION_BELOW", c.Session.InterventionBelow)
	c.Session.InterventionPrompt = getEnv("INTERVENTION_PROMPT", c.Session.InterventionPrompt)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Session.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %v", c.Session.TickInterval)
	}
	if c.Session.InterventionTicks < 1 {
		return fmt.Errorf("config: intervention_ticks must be >= 1, got %d", c.Session.InterventionTicks)
	}
	if c.Session.InterventionBelow < 0 || c.Session.InterventionBelow > 100 {
		return fmt.Errorf("config: intervention_below out of range [0,100]: %v", c.Session.InterventionBelow)
	}
	if strings.TrimSpace(c.Session.InterventionPrompt) == "" {
		return errors.New("config: intervention_prompt required")
	}
	if c.Server.Port == "" {
		return errors.New("config: server port required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
