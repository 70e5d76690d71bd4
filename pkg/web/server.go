// Package web serves the homehub HTTP API and the realtime websocket
// endpoints the dashboard subscribes to.
package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/shs-system/go-homehub/internal/log"
	"github.com/shs-system/go-homehub/pkg/camera"
	"github.com/shs-system/go-homehub/pkg/hub"
	"github.com/shs-system/go-homehub/pkg/mlbridge"
	"github.com/shs-system/go-homehub/pkg/protocol"
	"github.com/shs-system/go-homehub/pkg/sensor"
)

// maxEventBuffer is how many recent events /api/events keeps.
const maxEventBuffer = 500

// Server is the homehub web server.
type Server struct {
	app  *fiber.App
	port string

	sensors   *sensor.Supervisor
	cameraMgr *camera.Manager

	// Optional probes; nil when the subsystem is disabled
	cameraRunning func() bool
	mlStats       func() mlbridge.Stats

	// Recent events for /api/events
	events   [][]byte
	eventsMu sync.RWMutex

	// Hubs for websocket fan-out
	eventHub  *hub.Hub
	cameraHub *hub.Hub
}

// Option configures the server.
type Option func(*Server)

// WithCameraRunning wires the camera running-state probe.
func WithCameraRunning(fn func() bool) Option {
	return func(s *Server) { s.cameraRunning = fn }
}

// WithMLStats wires the ML bridge stats probe.
func WithMLStats(fn func() mlbridge.Stats) Option {
	return func(s *Server) { s.mlStats = fn }
}

// NewServer creates the web server. The supervisor provides sensor
// state; the manager backs the camera config API.
func NewServer(port string, sensors *sensor.Supervisor, cameraMgr *camera.Manager, opts ...Option) *Server {
	s := &Server{
		port:      port,
		sensors:   sensors,
		cameraMgr: cameraMgr,
		events:    make([][]byte, 0, maxEventBuffer),
		eventHub:  hub.New("events"),
		cameraHub: hub.New("camera"),
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "homehub",
		DisableStartupMessage: true,
	})

	// Dashboard may be served from anywhere (Flask-CORS parity)
	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/sensors", s.handleSensors)
	api.Get("/events", s.handleEvents)
	api.Get("/ml/stats", s.handleMLStats)
	api.Get("/camera/config", s.handleGetCameraConfig)
	api.Put("/camera/config", s.handleUpdateCameraConfig)
	api.Get("/camera/presets", s.handleCameraPresets)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start starts the web server. Blocks.
func (s *Server) Start() error {
	go s.eventHub.Run()
	go s.cameraHub.Run()

	log.Info("web server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server stopped", "error", err)
		}
	}()
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// EventHub returns the event fan-out hub.
func (s *Server) EventHub() *hub.Hub {
	return s.eventHub
}

// BroadcastJSON records an event and fans it out to subscribers.
// This makes the server a sensor.Broadcaster, so monitors publish
// straight into it.
func (s *Server) BroadcastJSON(v interface{}) error {
	msg, ok := v.(*protocol.Message)
	if !ok {
		return s.eventHub.BroadcastJSON(v)
	}

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	s.eventsMu.Lock()
	s.events = append(s.events, data)
	if len(s.events) > maxEventBuffer {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()

	s.eventHub.Broadcast(hub.NewJSONMessage(data))
	return nil
}

// PublishFrame streams a raw JPEG to camera subscribers.
func (s *Server) PublishFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// PublishProcessedFrame relays an ML-annotated frame: the metadata goes
// to event subscribers, the image itself to camera subscribers.
func (s *Server) PublishProcessedFrame(pf *protocol.ProcessedFrameData) {
	msg, err := protocol.NewProcessedFrameMessage(pf.Frame, pf.Detections)
	if err != nil {
		log.Error("build processed frame event", "error", err)
		return
	}
	if err := s.BroadcastJSON(msg); err != nil {
		log.Error("broadcast processed frame", "error", err)
	}

	if jpeg, err := pf.Frame.DecodeJPEG(); err == nil && len(jpeg) > 0 {
		s.cameraHub.BroadcastBinary(jpeg)
	}
}

// recentEvents returns a copy of the buffered events.
func (s *Server) recentEvents() [][]byte {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	out := make([][]byte, len(s.events))
	copy(out, s.events)
	return out
}
