package sensors

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/protocol"
)

// SourceTracker is the board fault key used for the outbound tracker link.
const SourceTracker = "tracker"

// Client dials an external landmark tracker and feeds its stream into a Feed.
// While disconnected the tracker source is marked unavailable on the board.
type Client struct {
	url    string
	feed   *Feed
	dialer *websocket.Dialer
	retry  time.Duration
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryInterval sets the delay between reconnect attempts.
func WithRetryInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.retry = d }
}

// WithDialer replaces the default dialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) { c.dialer = d }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a tracker client for url (ws:// or wss://).
func NewClient(url string, feed *Feed, opts ...ClientOption) *Client {
	c := &Client{
		url:  url,
		feed: feed,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		retry:  2 * time.Second,
		logger: log.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "sensors.client", "url", url)
	return c
}

// Run connects and reconnects until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	board := c.feed.Board()
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		board.SetUnavailable(SourceTracker, err.Error())
		c.logger.Warn("tracker disconnected", "error", err, "retry", c.retry)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.retry):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.feed.Board().ClearUnavailable(SourceTracker)
	c.logger.Info("tracker connected")

	// ReadMessage does not observe ctx; closing the conn unblocks it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			c.logger.Debug("dropping malformed message", "error", err)
			continue
		}

		if msg.Type == protocol.TypePing {
			pong, err := protocol.NewPongMessage("", msg.Timestamp, time.Now().UnixMilli())
			if err == nil {
				raw, _ := pong.Bytes()
				if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
					return err
				}
			}
			continue
		}

		if err := c.feed.Handle(msg); err != nil {
			if errors.Is(err, ErrUnknownType) {
				c.logger.Debug("ignoring message", "type", msg.Type)
				continue
			}
			c.logger.Debug("bad frame", "type", msg.Type, "error", err)
		}
	}
}
