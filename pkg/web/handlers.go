package web

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-zenith/pkg/protocol"
	"github.com/teslashibe/go-zenith/pkg/recorder"
	"github.com/teslashibe/go-zenith/pkg/report"
	"github.com/teslashibe/go-zenith/pkg/sensors"
	"github.com/teslashibe/go-zenith/pkg/session"
)

// StatusView is the dashboard status payload.
type StatusView struct {
	recorder.Status
	ZenithMode bool     `json:"zenithMode"`
	Clients    int      `json:"clients"`
	Logs       []string `json:"logs"`
}

// KeysRequest is the body of POST /api/keys.
type KeysRequest struct {
	Keys string `json:"keys"`
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrAlreadyActive),
		errors.Is(err, session.ErrNotStarted),
		errors.Is(err, session.ErrNotActive):
		return fiber.StatusConflict
	case errors.Is(err, sensors.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, report.ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// handleStatus returns the recorder state plus HUD extras
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusView{
		Status:     s.recorder.Status(),
		ZenithMode: s.keys.Active(),
		Clients:    s.metricsHub.ClientCount(),
		Logs:       s.Recent(RecentLogs),
	})
}

// handleGetLogs returns the buffered activity log
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}

// handleKeys feeds typed keys to the mode decoder
func (s *Server) handleKeys(c *fiber.Ctx) error {
	var req KeysRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	toggled := s.keys.Type(req.Keys)
	if toggled > 0 {
		s.AddLog(fmt.Sprintf("Zenith mode %s.", onOff(s.keys.Active())))
	}
	return c.JSON(fiber.Map{
		"toggled":    toggled,
		"zenithMode": s.keys.Active(),
	})
}

func onOff(b bool) string {
	if b {
		return "engaged"
	}
	return "released"
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	// the loop outlives the request
	id, err := s.recorder.Start(s.baseCtx)
	if err != nil {
		s.broadcastStatus("", err)
		return fail(c, err)
	}

	s.reportMu.Lock()
	s.report = nil
	s.reportMu.Unlock()

	s.broadcastStatus(id, nil)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"sessionId": id})
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	data, err := s.recorder.Stop()
	if err != nil {
		return fail(c, err)
	}
	s.broadcastStatus(data.ID, nil)

	r := report.Build(c.UserContext(), data, s.advice)
	s.reportMu.Lock()
	s.report = r
	s.reportMu.Unlock()

	s.AddLog("Report ready: " + string(r.Rank))
	return c.JSON(r)
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	if err := s.recorder.Reset(); err != nil {
		return fail(c, err)
	}
	s.reportMu.Lock()
	s.report = nil
	s.reportMu.Unlock()

	s.broadcastStatus("", nil)
	return c.JSON(s.recorder.Status())
}

// handleHeatmap returns the per-tick map while recording and the reduced
// map afterwards
func (s *Server) handleHeatmap(c *fiber.Ctx) error {
	return c.JSON(s.recorder.Heatmap())
}

func (s *Server) currentReport() *report.Report {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	return s.report
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	r := s.currentReport()
	if r == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no report"})
	}
	return c.JSON(r)
}

func (s *Server) handleReportPNG(c *fiber.Ctx) error {
	r := s.currentReport()
	if r == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no report"})
	}

	var buf bytes.Buffer
	if err := report.RenderPNG(&buf, r); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, report.PNGFileName(time.Now())))
	return c.Send(buf.Bytes())
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	kind := c.Params("kind")
	e, ok := s.exporters[kind]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown exporter: " + kind})
	}
	r := s.currentReport()
	if r == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no report"})
	}

	location, err := e.Export(c.UserContext(), r)
	if err != nil {
		s.logger.Warn("export failed", "kind", kind, "error", err)
		return fail(c, err)
	}
	s.AddLog("Report exported: " + kind)
	return c.JSON(fiber.Map{"kind": kind, "location": location})
}

func (s *Server) broadcastStatus(id string, err error) {
	msg, merr := protocol.NewStatusMessage(string(s.recorder.Status().Phase), id, err)
	if merr == nil {
		merr = s.metricsHub.BroadcastJSON(msg)
	}
	if merr != nil {
		s.logger.Warn("status broadcast failed", "error", merr)
	}
}
