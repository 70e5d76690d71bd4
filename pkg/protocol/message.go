// Package protocol defines the websocket message types exchanged between
// the hub, dashboard clients, and the ML inference server.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of websocket message.
// The names match the event names the dashboard already listens for.
type MessageType string

const (
	// Sensor → subscribers
	TypeWaterReading MessageType = "water_level_reading"
	TypeWaterAlert   MessageType = "water_level_alert"
	TypeRainReading  MessageType = "rain_sensor_reading"
	TypeRainAlert    MessageType = "rain_alert"
	TypeSmokeReading MessageType = "smoke_sensor_reading"
	TypeSmokeAlert   MessageType = "smoke_alert"

	// Camera ↔ ML server
	TypeFrame          MessageType = "frame"           // Outbound JPEG frame
	TypeProcessedFrame MessageType = "processed_frame" // Frame with detections

	// Server → subscribers on connect
	TypeStatus MessageType = "connection_status"

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the base wrapper for all websocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// IsAlert reports whether the message type is one of the alert events.
func (m *Message) IsAlert() bool {
	switch m.Type {
	case TypeWaterAlert, TypeRainAlert, TypeSmokeAlert:
		return true
	}
	return false
}

// =============================================================================
// Sensor payloads
// =============================================================================

// WaterLevelReading is a reading from the serial water-level sensor
type WaterLevelReading struct {
	Value          int  `json:"value"`
	HighWaterLevel bool `json:"high_water_level"`
}

// RainReading is a reading from the FC37/YL-83 rain sensor.
// The sensor outputs LOW when rain is detected, so Value is the raw
// digital level (0 or 1) and RainDetected is the interpreted state.
type RainReading struct {
	Value        int  `json:"value"`
	RainDetected bool `json:"rain_detected"`
}

// SmokeReading is a reading from the MQ2 smoke/gas sensor
type SmokeReading struct {
	Value         int  `json:"value"`
	SmokeDetected bool `json:"smoke_detected"`
}

// AlertData carries the human-readable alert text
type AlertData struct {
	Message string `json:"message"`
}

// =============================================================================
// Camera payloads
// =============================================================================

// FrameData contains a JPEG camera frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// ProcessedFrameData is a frame annotated by the ML server
type ProcessedFrameData struct {
	Frame      FrameData   `json:"frame"`
	Detections []Detection `json:"detections,omitempty"`
}

// Detection is one object detected by the ML server
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"` // Bounding box, 0-1 normalized
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
}

// =============================================================================
// Control payloads
// =============================================================================

// StatusData is sent to a subscriber when it connects
type StatusData struct {
	Status string `json:"status"`
}

// PingData contains ping information
type PingData struct {
	ID string `json:"id"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
