// Package sensor provides the sensor abstraction and the monitoring
// machinery that polls hardware and publishes readings to the hub.
package sensor

import (
	"errors"

	"github.com/shs-system/go-homehub/pkg/protocol"
)

// ErrClosed marks a sensor whose underlying hardware is gone for good
// (e.g. an unplugged serial adapter). Sample errors wrapping it tell the
// monitor to stop polling instead of retrying forever.
var ErrClosed = errors.New("sensor: closed")

// Broadcaster receives sensor events for fan-out to subscribers.
// *hub.Hub satisfies this.
type Broadcaster interface {
	BroadcastJSON(v interface{}) error
}

// Sample is one sensor observation, ready for broadcast.
type Sample struct {
	// Reading is always set.
	Reading *protocol.Message

	// Alert is set when the sensor's trigger condition holds.
	// It is broadcast in the same tick as the reading.
	Alert *protocol.Message
}

// Sensor is a pollable hardware sensor.
type Sensor interface {
	// Name identifies the sensor ("water_level", "rain", "smoke").
	Name() string

	// Sample takes one observation. A nil sample with a nil error means
	// no data was available this tick (e.g. an idle serial line).
	Sample() (*Sample, error)

	// Close releases the underlying hardware resource.
	Close() error
}
