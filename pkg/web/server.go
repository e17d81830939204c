// Package web serves the session dashboard: REST control of the recorder,
// live metric and log streams, report retrieval and export.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/advice"
	"github.com/teslashibe/go-zenith/pkg/hub"
	"github.com/teslashibe/go-zenith/pkg/ingest"
	"github.com/teslashibe/go-zenith/pkg/keyseq"
	"github.com/teslashibe/go-zenith/pkg/recorder"
	"github.com/teslashibe/go-zenith/pkg/report"
)

// Server is the dashboard server.
type Server struct {
	app     *fiber.App
	baseCtx context.Context
	port    string
	static  string
	logger  *slog.Logger

	recorder *recorder.Recorder
	advice   advice.Generator
	keys     *keyseq.Decoder
	ingest   *ingest.Hub
	docs     *report.DocsExporter

	exporters map[string]report.Exporter

	// Hubs for websocket broadcast
	metricsHub *hub.Hub
	logHub     *hub.Hub

	logs   []LogEntry
	logsMu sync.RWMutex

	reportMu sync.RWMutex
	report   *report.Report
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listen port.
func WithPort(port string) Option {
	return func(s *Server) { s.port = port }
}

// WithStaticDir serves dashboard assets from dir.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.static = dir }
}

// WithAdvice sets the generator used when a report is built.
func WithAdvice(g advice.Generator) Option {
	return func(s *Server) { s.advice = g }
}

// WithIngest mounts producer websocket and stats routes.
func WithIngest(h *ingest.Hub) Option {
	return func(s *Server) { s.ingest = h }
}

// WithExporter registers an export sink under kind, e.g. "png".
func WithExporter(kind string, e report.Exporter) Option {
	return func(s *Server) { s.exporters[kind] = e }
}

// WithDocs registers the Google Docs exporter and its OAuth routes.
func WithDocs(d *report.DocsExporter) Option {
	return func(s *Server) {
		s.docs = d
		s.exporters["docs"] = d
	}
}

// WithMetricsHub uses h for the metrics stream instead of a private hub, so
// that producers built before the server can share it.
func WithMetricsHub(h *hub.Hub) Option {
	return func(s *Server) { s.metricsHub = h }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates the dashboard around rec. The recorder should be built
// with an observer calling AddLog and broadcast to the metrics hub.
func NewServer(rec *recorder.Recorder, opts ...Option) *Server {
	s := &Server{
		baseCtx:   context.Background(),
		port:      "8080",
		logger:    log.L(),
		recorder:  rec,
		keys:      keyseq.New(),
		exporters: make(map[string]report.Exporter),
		logs:      make([]LogEntry, 0, maxLogs),
	}
	for _, opt := range opts {
		opt(s)
	}
	base := s.logger
	s.logger = base.With("component", "web")
	if s.metricsHub == nil {
		s.metricsHub = hub.New("metrics", base)
	}
	s.logHub = hub.New("logs", base)

	app := fiber.New(fiber.Config{
		AppName:               "Zenith Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
	}))
	// CORS for local development
	app.Use(cors.New())

	if s.static != "" {
		app.Static("/", s.static)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Post("/keys", s.handleKeys)

	sess := api.Group("/session")
	sess.Post("/start", s.handleStart)
	sess.Post("/stop", s.handleStop)
	sess.Post("/reset", s.handleReset)
	sess.Get("/heatmap", s.handleHeatmap)
	sess.Get("/report", s.handleReport)
	sess.Get("/report.png", s.handleReportPNG)
	sess.Post("/export/:kind", s.handleExport)

	if s.docs != nil {
		g := api.Group("/export/google")
		g.Get("/status", s.handleDocsStatus)
		g.Get("/auth", s.handleDocsAuth)
		g.Get("/callback", s.handleDocsCallback)
		g.Post("/disconnect", s.handleDocsDisconnect)
	}

	if s.ingest != nil {
		s.ingest.RegisterRoutes(app)
		s.ingest.RegisterAPIRoutes(api)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/metrics", websocket.New(s.handleMetricsWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// MetricsHub carries per-tick metrics, status changes and advisories.
func (s *Server) MetricsHub() *hub.Hub {
	return s.metricsHub
}

// LogHub carries activity log entries.
func (s *Server) LogHub() *hub.Hub {
	return s.logHub
}

// Run listens on the configured port until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return fmt.Errorf("web: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hubs and serves on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.baseCtx = ctx

	hubCtx, stopHubs := context.WithCancel(context.WithoutCancel(ctx))
	var hubs sync.WaitGroup
	for _, h := range []*hub.Hub{s.metricsHub, s.logHub} {
		hubs.Add(1)
		go func(h *hub.Hub) {
			defer hubs.Done()
			h.Run(hubCtx)
		}(h)
	}
	closeHubs := func() {
		stopHubs()
		hubs.Wait()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", ln.Addr().String())
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		closeHubs()
		return err
	case <-ctx.Done():
	}

	// closing the hubs closes every websocket client so shutdown can drain
	closeHubs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleMetricsWS(c *websocket.Conn) {
	hub.NewClient(s.metricsHub, c).Run()
}

func (s *Server) handleLogsWS(c *websocket.Conn) {
	// replay history before the write pump takes over the connection
	for _, entry := range s.Logs() {
		if err := c.WriteJSON(entry); err != nil {
			return
		}
	}
	hub.NewClient(s.logHub, c).Run()
}
