package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/shs-system/go-homehub/pkg/camera"
	"github.com/shs-system/go-homehub/pkg/hub"
	"github.com/shs-system/go-homehub/pkg/protocol"
)

// IndexStatusText is the banner the root endpoint returns.
const IndexStatusText = "Smart Home System API running"

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Status        string          `json:"status"`
	Sensors       map[string]bool `json:"sensors"`
	MLConnected   bool            `json:"ml_connected"`
	CameraRunning bool            `json:"camera_running"`
}

// handleIndex confirms the API is up.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": IndexStatusText})
}

// handleStatus reports per-subsystem state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		Status:  "online",
		Sensors: s.sensors.Running(),
	}
	if s.mlStats != nil {
		resp.MLConnected = s.mlStats().Connected
	}
	if s.cameraRunning != nil {
		resp.CameraRunning = s.cameraRunning()
	}
	return c.JSON(resp)
}

// handleSensors returns the latest reading per sensor.
func (s *Server) handleSensors(c *fiber.Ctx) error {
	return c.JSON(s.sensors.Latest())
}

// handleEvents returns the recent event buffer.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	events := s.recentEvents()
	out := make([]json.RawMessage, len(events))
	for i, e := range events {
		out[i] = json.RawMessage(e)
	}
	return c.JSON(out)
}

// handleMLStats returns ML bridge statistics.
func (s *Server) handleMLStats(c *fiber.Ctx) error {
	if s.mlStats == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "ml bridge disabled",
		})
	}
	return c.JSON(s.mlStats())
}

// handleGetCameraConfig returns the current camera configuration.
func (s *Server) handleGetCameraConfig(c *fiber.Ctx) error {
	return c.JSON(s.cameraMgr.GetConfig())
}

// handleUpdateCameraConfig applies a partial camera config update.
func (s *Server) handleUpdateCameraConfig(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.cameraMgr.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.cameraMgr.GetConfig())
}

// handleCameraPresets lists the available camera presets.
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.Presets())
}

// handleEventsWS handles websocket subscriptions to the event stream.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.eventHub, c)

	// connection_status greeting, like the socketio connect handler did
	if greeting, err := protocol.NewStatusMessage("connected"); err == nil {
		if data, err := greeting.Bytes(); err == nil {
			client.Send(hub.NewJSONMessage(data))
		}
	}

	client.Run()
}

// handleCameraWS handles websocket subscriptions to the JPEG stream.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
