package web

import (
	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleDocsStatus(c *fiber.Ctx) error {
	return c.JSON(s.docs.Status())
}

func (s *Server) handleDocsAuth(c *fiber.Ctx) error {
	return c.Redirect(s.docs.AuthURL(), fiber.StatusTemporaryRedirect)
}

func (s *Server) handleDocsCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing authorization code")
	}
	if err := s.docs.HandleCallback(c.UserContext(), c.Query("state"), code); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Authentication failed: " + err.Error())
	}

	s.AddLog("Google Docs export connected.")
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(`<!DOCTYPE html><html><body style="background:#0a0a0a;color:#00ff41;font-family:monospace">` +
		`<p>Google Docs connected. You can close this window.</p>` +
		`<script>setTimeout(function(){window.close()},3000)</script></body></html>`)
}

func (s *Server) handleDocsDisconnect(c *fiber.Ctx) error {
	if err := s.docs.Disconnect(); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
