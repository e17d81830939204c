package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-zenith/internal/config"
	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/advice"
	"github.com/teslashibe/go-zenith/pkg/advisory"
	"github.com/teslashibe/go-zenith/pkg/hub"
	"github.com/teslashibe/go-zenith/pkg/ingest"
	"github.com/teslashibe/go-zenith/pkg/intervention"
	"github.com/teslashibe/go-zenith/pkg/recorder"
	"github.com/teslashibe/go-zenith/pkg/report"
	"github.com/teslashibe/go-zenith/pkg/sensors"
	"github.com/teslashibe/go-zenith/pkg/tts"
	"github.com/teslashibe/go-zenith/pkg/web"
)

var feedURL string

// serveCmd runs the dashboard, ingest endpoint and session recorder
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard and sensor ingest server",
	Long: `Start the HTTP dashboard. Sensor producers connect to /ws/ingest and
dashboards subscribe to /ws/metrics and /ws/logs. With --feed the server also
dials an external landmark tracker and consumes its stream.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&feedURL, "feed", "", "ws:// URL of an external landmark tracker (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if feedURL != "" {
		cfg.Sensors.FeedURL = feedURL
	}
	logger := log.L()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsHub := hub.New("metrics", logger)
	dispatcher := advisory.NewDispatcher(advisorySinks(cfg, metricsHub, logger), advisory.WithLogger(logger))

	var srv *web.Server
	board := sensors.NewBoard()
	rec := recorder.New(board,
		recorder.WithTickInterval(cfg.Session.TickInterval),
		recorder.WithPolicy(policyFrom(cfg)),
		recorder.WithAdvisor(dispatcher),
		recorder.WithBroadcaster(metricsHub),
		recorder.WithObserver(func(line string) { srv.AddLog(line) }),
		recorder.WithLogger(logger),
	)
	feed := sensors.NewFeed(board,
		sensors.WithTranscriptHandler(rec.HandleTranscript),
		sensors.WithFaultHandler(rec.HandleFault),
		sensors.WithLogger(logger),
	)

	opts := []web.Option{
		web.WithPort(cfg.Server.Port),
		web.WithStaticDir(cfg.Server.StaticDir),
		web.WithMetricsHub(metricsHub),
		web.WithIngest(ingest.NewHub(feed, logger)),
		web.WithAdvice(adviceGenerator(ctx, cfg, logger)),
		web.WithExporter("png", report.PNGExporter{Dir: cfg.Export.Dir}),
		web.WithExporter("json", report.JSONExporter{Dir: cfg.Export.Dir}),
		web.WithLogger(logger),
	}
	if cfg.Export.GoogleClientID != "" {
		docs, err := report.NewDocsExporter(ctx, report.DocsConfig{
			ClientID:     cfg.Export.GoogleClientID,
			ClientSecret: cfg.Export.GoogleClientSecret,
			RedirectURL:  "http://localhost:" + cfg.Server.Port + "/api/export/google/callback",
			TokenPath:    cfg.Export.GoogleTokenPath,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		opts = append(opts, web.WithDocs(docs))
	}
	srv = web.NewServer(rec, opts...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return srv.Run(ctx)
	})
	if cfg.Sensors.FeedURL != "" {
		client := sensors.NewClient(cfg.Sensors.FeedURL, feed, sensors.WithClientLogger(logger))
		g.Go(func() error {
			return client.Run(ctx)
		})
	}

	logger.Info("zenith started",
		"port", cfg.Server.Port,
		"tick", cfg.Session.TickInterval,
		"feed", cfg.Sensors.FeedURL,
		"advice", cfg.Advice.APIKey != "",
		"speech", cfg.TTS.APIKey != "",
	)

	err = g.Wait()

	// a session still running at shutdown is discarded
	if _, stopErr := rec.Stop(); stopErr == nil {
		logger.Info("recording stopped at shutdown")
	}
	return err
}

func policyFrom(cfg config.Config) intervention.Policy {
	return intervention.Policy{
		Threshold: cfg.Session.InterventionBelow,
		Trigger:   cfg.Session.InterventionTicks,
		Message:   cfg.Session.InterventionPrompt,
	}
}

// advisorySinks always logs and broadcasts; speech is added when at least
// one TTS key is configured.
func advisorySinks(cfg config.Config, metricsHub *hub.Hub, logger *slog.Logger) []advisory.Sink {
	sinks := []advisory.Sink{
		advisory.LogSink{Logger: logger},
		advisory.HubSink{Hub: metricsHub},
	}

	chain, err := tts.NewChain(logger, speechProviders(cfg, logger)...)
	if err != nil {
		logger.Info("speech advisories disabled", "reason", err)
		return sinks
	}
	logger.Info("speech advisories enabled", "providers", chain.Providers())
	return append(sinks, advisory.SpeechSink{Provider: chain, Hub: metricsHub})
}

// speechProviders returns OpenAI then ElevenLabs, skipping any without a key.
func speechProviders(cfg config.Config, logger *slog.Logger) []tts.Provider {
	var providers []tts.Provider

	if cfg.TTS.APIKey != "" {
		openai, err := tts.NewOpenAI(
			tts.WithAPIKey(cfg.TTS.APIKey),
			tts.WithVoice(cfg.TTS.Voice),
			tts.WithLogger(logger),
		)
		if err != nil {
			logger.Warn("openai speech disabled", "error", err)
		} else {
			providers = append(providers, openai)
		}
	}

	if cfg.TTS.ElevenLabsAPIKey != "" {
		eleven, err := tts.NewElevenLabs(
			tts.WithAPIKey(cfg.TTS.ElevenLabsAPIKey),
			tts.WithVoice(cfg.TTS.ElevenLabsVoice),
			tts.WithLogger(logger),
		)
		if err != nil {
			logger.Warn("elevenlabs speech disabled", "error", err)
		} else {
			providers = append(providers, eleven)
		}
	}

	return providers
}

// adviceGenerator never fails: without a key every report gets the offline text.
func adviceGenerator(ctx context.Context, cfg config.Config, logger *slog.Logger) advice.Generator {
	if cfg.Advice.APIKey == "" {
		logger.Info("advice generation disabled: no GOOGLE_API_KEY")
		return advice.WithFallback(nil, logger)
	}
	gem, err := advice.NewGemini(ctx,
		advice.WithAPIKey(cfg.Advice.APIKey),
		advice.WithModel(cfg.Advice.Model),
		advice.WithTimeout(cfg.Advice.Timeout),
		advice.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("advice generation disabled", "error", err)
		return advice.WithFallback(nil, logger)
	}
	return advice.WithFallback(gem, logger)
}
