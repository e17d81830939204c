package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/protocol"
)

type recordingHandler struct {
	mu   sync.Mutex
	msgs []*protocol.Message
	err  error
}

func (r *recordingHandler) Handle(msg *protocol.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingHandler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func startServer(t *testing.T, hub *Hub) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	hub.RegisterRoutes(app)
	hub.RegisterAPIRoutes(app.Group("/api"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })

	return "ws://" + ln.Addr().String()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewHub(t *testing.T) {
	hub := NewHub(&recordingHandler{}, log.Discard())

	if hub.ProducerCount() != 0 {
		t.Error("ProducerCount should be 0 initially")
	}
	stats := hub.GetStats()
	if stats.MessagesReceived != 0 || stats.FramesReceived != 0 {
		t.Errorf("unexpected initial stats: %+v", stats)
	}
	if len(hub.GetProducerInfos()) != 0 {
		t.Error("GetProducerInfos should return empty slice initially")
	}
}

func TestProducerConnectAndDisconnect(t *testing.T) {
	hub := NewHub(&recordingHandler{}, log.Discard())
	base := startServer(t, hub)

	ws, _, err := websocket.DefaultDialer.Dial(base+"/ws/ingest/camera-1", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}

	waitFor(t, func() bool { return hub.ProducerCount() == 1 })
	if infos := hub.GetProducerInfos(); infos[0].ID != "camera-1" {
		t.Errorf("producer ID = %s, want camera-1", infos[0].ID)
	}

	ws.Close()
	waitFor(t, func() bool { return hub.ProducerCount() == 0 })
}

func TestMessagesReachHandler(t *testing.T) {
	handler := &recordingHandler{}
	hub := NewHub(handler, log.Discard())
	base := startServer(t, hub)

	ws, _, err := websocket.DefaultDialer.Dial(base+"/ws/ingest", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	gaze, _ := protocol.NewGazeMessage(true, 0.001)
	vol, _ := protocol.NewVolumeMessage(10)
	for _, m := range []*protocol.Message{gaze, vol} {
		raw, _ := m.Bytes()
		ws.WriteMessage(websocket.TextMessage, raw)
	}
	ws.WriteMessage(websocket.TextMessage, []byte("not json"))

	waitFor(t, func() bool { return hub.GetStats().MessagesRejected == 1 })

	if handler.count() != 2 {
		t.Errorf("handler saw %d messages, want 2", handler.count())
	}
	stats := hub.GetStats()
	if stats.FramesReceived != 1 {
		t.Errorf("FramesReceived = %d, want 1", stats.FramesReceived)
	}
	if stats.MessagesRejected != 1 {
		t.Errorf("MessagesRejected = %d, want 1", stats.MessagesRejected)
	}
}

func TestPingGetsPong(t *testing.T) {
	hub := NewHub(&recordingHandler{}, log.Discard())
	base := startServer(t, hub)

	ws, _, err := websocket.DefaultDialer.Dial(base+"/ws/ingest/p", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	ping, _ := protocol.NewMessage(protocol.TypePing, protocol.PingData{ID: "1"})
	raw, _ := ping.Bytes()
	ws.WriteMessage(websocket.TextMessage, raw)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	var msg protocol.Message
	json.Unmarshal(data, &msg)
	if msg.Type != protocol.TypePong {
		t.Errorf("Type = %s, want pong", msg.Type)
	}
}

func TestSendToUnknownProducer(t *testing.T) {
	hub := NewHub(&recordingHandler{}, log.Discard())

	msg, _ := protocol.NewLogMessage("hello")
	if err := hub.Send("nope", msg); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send error = %v, want ErrNotConnected", err)
	}
}

func TestUpgradeRequired(t *testing.T) {
	hub := NewHub(&recordingHandler{}, log.Discard())
	app := fiber.New()
	hub.RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/ingest", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("Status = %d, want 426", resp.StatusCode)
	}
}

func TestAPIListProducers(t *testing.T) {
	hub := NewHub(&recordingHandler{}, log.Discard())
	app := fiber.New()
	hub.RegisterAPIRoutes(app.Group("/api"))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/producers/", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "producers") {
		t.Error("Response should contain 'producers' field")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/producers/stats", nil))
	if err != nil || resp.StatusCode != 200 {
		t.Errorf("stats: status %v, err %v", resp.StatusCode, err)
	}
}
