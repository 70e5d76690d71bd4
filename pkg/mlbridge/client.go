// Package mlbridge maintains the outbound websocket connection to the
// ML inference server. Camera frames go out, processed frames with
// detections come back.
package mlbridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shs-system/go-homehub/internal/httpc"
	"github.com/shs-system/go-homehub/internal/log"
	"github.com/shs-system/go-homehub/pkg/camera"
	"github.com/shs-system/go-homehub/pkg/protocol"
)

// Reconnect backoff bounds.
const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// ProcessedFunc receives processed frames from the ML server.
type ProcessedFunc func(*protocol.ProcessedFrameData)

// Client is the websocket client to the ML inference server.
// Run owns the connection and reconnects with capped exponential
// backoff; SendFrame drops frames while disconnected, as the Python
// module did.
type Client struct {
	url string

	mu   sync.Mutex // Guards conn for writes and swaps
	conn *websocket.Conn

	connected atomic.Bool

	onProcessed ProcessedFunc

	// Stats
	framesSent      atomic.Uint64
	framesDropped   atomic.Uint64
	framesProcessed atomic.Uint64
}

// NewClient creates a client for the given websocket URL.
func NewClient(url string) *Client {
	return &Client{url: url}
}

// SetOnProcessedFrame sets the callback for processed frames.
// Must be called before Run.
func (c *Client) SetOnProcessedFrame(fn ProcessedFunc) {
	c.onProcessed = fn
}

// Connected reports whether the ML server link is up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run connects and reconnects until the context is cancelled.
// It blocks; call it in a goroutine.
func (c *Client) Run(ctx context.Context) {
	backoff := initialBackoff

	for {
		if err := c.connect(ctx); err != nil {
			log.Warn("ml server connect failed", "url", c.url, "error", err, "retry_in", backoff)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = initialBackoff
		log.Info("connected to ml server", "url", c.url)

		// Blocks until the connection drops or ctx is cancelled
		c.readLoop(ctx)

		c.teardown()
		if ctx.Err() != nil {
			return
		}
		log.Warn("ml server connection lost, reconnecting", "url", c.url)
	}
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)
	return nil
}

func (c *Client) teardown() {
	c.connected.Store(false)
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

// readLoop processes inbound messages until the connection fails.
func (c *Client) readLoop(ctx context.Context) {
	// Unblock ReadMessage when the context ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.teardown()
		case <-done:
		}
	}()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Warn("ml server sent unparseable message", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeProcessedFrame:
			c.framesProcessed.Add(1)
			if c.onProcessed != nil {
				pf, err := msg.GetProcessedFrame()
				if err != nil {
					log.Warn("bad processed frame", "error", err)
					continue
				}
				c.onProcessed(pf)
			}

		case protocol.TypePing:
			ping, err := msg.GetPingData()
			if err != nil {
				continue
			}
			pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli())
			if err != nil {
				continue
			}
			if err := c.write(pong); err != nil {
				return
			}
		}
	}
}

// SendFrame sends a camera frame to the ML server. Frames are dropped
// (not queued) while the link is down.
func (c *Client) SendFrame(frame camera.Frame) error {
	if !c.connected.Load() {
		c.framesDropped.Add(1)
		log.Debug("ml server down, dropping frame", "frame_id", frame.ID)
		return nil
	}

	msg, err := protocol.NewFrameMessage(frame.Width, frame.Height, frame.JPEG, frame.ID)
	if err != nil {
		return err
	}

	if err := c.write(msg); err != nil {
		c.framesDropped.Add(1)
		return err
	}
	c.framesSent.Add(1)
	return nil
}

func (c *Client) write(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return websocket.ErrCloseSent
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// HealthCheck probes the ML server's HTTP health endpoint. The probe
// URL is derived from the websocket URL (ws://host:port/... →
// http://host:port/health). Useful at boot to tell "server down" from
// "server up, handshake broken".
func (c *Client) HealthCheck(ctx context.Context) error {
	u, err := url.Parse(c.url)
	if err != nil {
		return fmt.Errorf("parse ml server url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := httpc.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml server health returned %s", resp.Status)
	}
	return nil
}

// Stats contains bridge statistics.
type Stats struct {
	Connected       bool   `json:"connected"`
	FramesSent      uint64 `json:"frames_sent"`
	FramesDropped   uint64 `json:"frames_dropped"`
	FramesProcessed uint64 `json:"frames_processed"`
}

// GetStats returns bridge statistics.
func (c *Client) GetStats() Stats {
	return Stats{
		Connected:       c.connected.Load(),
		FramesSent:      c.framesSent.Load(),
		FramesDropped:   c.framesDropped.Load(),
		FramesProcessed: c.framesProcessed.Load(),
	}
}
