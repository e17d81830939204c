// Package ingest accepts sensor producer connections over WebSocket and
// hands their messages to a Handler.
package ingest

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/protocol"
)

// Handler consumes producer messages. sensors.Feed implements it.
type Handler interface {
	Handle(msg *protocol.Message) error
}

// ErrNotConnected is returned when sending to an unknown producer.
var ErrNotConnected = errors.New("ingest: producer not connected")

// Producer represents a connected sensor producer.
type Producer struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send writes a message to the producer.
func (p *Producer) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks producer connections.
type Hub struct {
	mu        sync.RWMutex
	producers map[string]*Producer
	handler   Handler
	logger    *slog.Logger

	messagesReceived atomic.Uint64
	messagesRejected atomic.Uint64
	framesReceived   atomic.Uint64
}

// NewHub creates a hub delivering to handler.
func NewHub(handler Handler, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = log.L()
	}
	return &Hub{
		producers: make(map[string]*Producer),
		handler:   handler,
		logger:    logger.With("component", "ingest.hub"),
	}
}

// RegisterRoutes registers the producer WebSocket routes on a Fiber app.
func (h *Hub) RegisterRoutes(app fiber.Router) {
	app.Use("/ws/ingest", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/ingest", websocket.New(h.handleProducer))
	app.Get("/ws/ingest/:id", websocket.New(h.handleProducer))
}

func (h *Hub) handleProducer(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now()
	p := &Producer{ID: id, Conn: c, Connected: now, LastSeen: now}

	h.mu.Lock()
	h.producers[id] = p
	count := len(h.producers)
	h.mu.Unlock()
	h.logger.Info("producer connected", "id", id, "total", count)

	defer func() {
		h.mu.Lock()
		if h.producers[id] == p {
			delete(h.producers, id)
		}
		count := len(h.producers)
		h.mu.Unlock()
		h.logger.Info("producer disconnected", "id", id, "remaining", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("producer read ended", "id", id, "error", err)
			return
		}

		p.mu.Lock()
		p.LastSeen = time.Now()
		p.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(p, data)
	}
}

func (h *Hub) handleMessage(p *Producer, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.messagesRejected.Add(1)
		h.logger.Debug("parse error", "id", p.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		pong, err := protocol.NewPongMessage("", msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			p.Send(pong)
		}
		return
	case protocol.TypeLandmarks, protocol.TypeGaze:
		h.framesReceived.Add(1)
	}

	if err := h.handler.Handle(msg); err != nil {
		h.messagesRejected.Add(1)
		h.logger.Debug("message rejected", "id", p.ID, "type", msg.Type, "error", err)
	}
}

// Send writes a message to one producer.
func (h *Hub) Send(id string, msg *protocol.Message) error {
	h.mu.RLock()
	p, ok := h.producers[id]
	h.mu.RUnlock()

	if !ok {
		return ErrNotConnected
	}
	return p.Send(msg)
}

// ProducerCount returns the number of connected producers.
func (h *Hub) ProducerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.producers)
}

// Stats contains hub statistics
type Stats struct {
	ProducerCount    int    `json:"producer_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesRejected uint64 `json:"messages_rejected"`
	FramesReceived   uint64 `json:"frames_received"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		ProducerCount:    h.ProducerCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesRejected: h.messagesRejected.Load(),
		FramesReceived:   h.framesReceived.Load(),
	}
}

// ProducerInfo describes a connected producer.
type ProducerInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// GetProducerInfos returns info about all connected producers.
func (h *Hub) GetProducerInfos() []ProducerInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]ProducerInfo, 0, len(h.producers))
	for _, p := range h.producers {
		p.mu.Lock()
		infos = append(infos, ProducerInfo{
			ID:        p.ID,
			Connected: p.Connected,
			LastSeen:  p.LastSeen,
		})
		p.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers producer inspection routes.
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	producers := api.Group("/producers")

	producers.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"producers": h.GetProducerInfos(),
			"count":     h.ProducerCount(),
		})
	})

	producers.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
