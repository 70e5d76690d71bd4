package sensor

import (
	"periph.io/x/conn/v3/gpio"

	"github.com/shs-system/go-homehub/pkg/protocol"
)

// RainAlertText is the alert message sent while rain is detected.
const RainAlertText = "Rain detected!"

// RainSensor reads the FC37 / YL-83 rain sensor's digital output.
// The board pulls the line LOW when its grid is wet.
type RainSensor struct {
	line Line
}

// NewRainSensor wraps an already-opened GPIO line.
func NewRainSensor(line Line) *RainSensor {
	return &RainSensor{line: line}
}

// OpenRainSensor opens the sensor on the named GPIO pin.
// The FC37 board drives the line, so no internal pull is needed.
func OpenRainSensor(pin string) (*RainSensor, error) {
	line, err := OpenLine(pin, gpio.PullNoChange)
	if err != nil {
		return nil, err
	}
	return NewRainSensor(line), nil
}

// Name implements Sensor.
func (r *RainSensor) Name() string {
	return "rain"
}

// Sample reads the digital line once.
func (r *RainSensor) Sample() (*Sample, error) {
	high, err := r.line.Read()
	if err != nil {
		return nil, err
	}

	value := 0
	if high {
		value = 1
	}
	detected := !high // LOW = rain

	reading, err := protocol.NewRainReadingMessage(value, detected)
	if err != nil {
		return nil, err
	}

	sample := &Sample{Reading: reading}
	if detected {
		alert, err := protocol.NewAlertMessage(protocol.TypeRainAlert, RainAlertText)
		if err != nil {
			return nil, err
		}
		sample.Alert = alert
	}
	return sample, nil
}

// Close releases the GPIO pin.
func (r *RainSensor) Close() error {
	return r.line.Close()
}
