package protocol

import (
	"encoding/base64"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewWaterReadingMessage creates a water level reading message
func NewWaterReadingMessage(value int, high bool) (*Message, error) {
	return NewMessage(TypeWaterReading, WaterLevelReading{
		Value:          value,
		HighWaterLevel: high,
	})
}

// NewRainReadingMessage creates a rain sensor reading message
func NewRainReadingMessage(value int, detected bool) (*Message, error) {
	return NewMessage(TypeRainReading, RainReading{
		Value:        value,
		RainDetected: detected,
	})
}

// NewSmokeReadingMessage creates a smoke sensor reading message
func NewSmokeReadingMessage(value int, detected bool) (*Message, error) {
	return NewMessage(TypeSmokeReading, SmokeReading{
		Value:         value,
		SmokeDetected: detected,
	})
}

// NewAlertMessage creates an alert message of the given type
func NewAlertMessage(msgType MessageType, text string) (*Message, error) {
	return NewMessage(msgType, AlertData{Message: text})
}

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewProcessedFrameMessage creates a processed frame message
func NewProcessedFrameMessage(frame FrameData, detections []Detection) (*Message, error) {
	return NewMessage(TypeProcessedFrame, ProcessedFrameData{
		Frame:      frame,
		Detections: detections,
	})
}

// NewStatusMessage creates a connection status message
func NewStatusMessage(status string) (*Message, error) {
	return NewMessage(TypeStatus, StatusData{Status: status})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetWaterReading extracts a water level reading from a message
func (m *Message) GetWaterReading() (*WaterLevelReading, error) {
	var data WaterLevelReading
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetRainReading extracts a rain reading from a message
func (m *Message) GetRainReading() (*RainReading, error) {
	var data RainReading
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSmokeReading extracts a smoke reading from a message
func (m *Message) GetSmokeReading() (*SmokeReading, error) {
	var data SmokeReading
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetAlertData extracts alert data from a message
func (m *Message) GetAlertData() (*AlertData, error) {
	var data AlertData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetProcessedFrame extracts processed frame data from a message
func (m *Message) GetProcessedFrame() (*ProcessedFrameData, error) {
	var data ProcessedFrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeJPEG decodes the base64 image data
func (f *FrameData) DecodeJPEG() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}
