// Package hub fans messages out to websocket subscribers over buffered
// per-client channels. The daemon runs one hub per stream: sensor
// readings, alerts and processed-frame metadata travel as JSON on the
// event hub, raw JPEG frames as binary on the camera hub.
package hub

// MessageType says how a payload goes on the wire.
type MessageType int

const (
	// JSONMessage is an encoded event for the event stream.
	JSONMessage MessageType = iota

	// BinaryMessage is a raw JPEG frame for the camera stream.
	BinaryMessage
)

// Message is one payload queued for delivery to subscribers.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON for the event stream.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps a JPEG frame for the camera stream.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
