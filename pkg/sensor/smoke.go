package sensor

import (
	"periph.io/x/conn/v3/gpio"

	"github.com/shs-system/go-homehub/pkg/protocol"
)

// SmokeAlertText is the alert message sent while smoke or gas is detected.
const SmokeAlertText = "Smoke or gas detected!"

// SmokeSensor reads the MQ2 smoke/gas sensor's digital output.
// The module pulls the line LOW when gas exceeds its onboard threshold.
type SmokeSensor struct {
	line Line
}

// NewSmokeSensor wraps an already-opened GPIO line.
func NewSmokeSensor(line Line) *SmokeSensor {
	return &SmokeSensor{line: line}
}

// OpenSmokeSensor opens the sensor on the named GPIO pin with a
// pull-down to reduce noise when the module is disconnected.
func OpenSmokeSensor(pin string) (*SmokeSensor, error) {
	line, err := OpenLine(pin, gpio.PullDown)
	if err != nil {
		return nil, err
	}
	return NewSmokeSensor(line), nil
}

// Name implements Sensor.
func (s *SmokeSensor) Name() string {
	return "smoke"
}

// Sample reads the digital line once.
func (s *SmokeSensor) Sample() (*Sample, error) {
	high, err := s.line.Read()
	if err != nil {
		return nil, err
	}

	value := 0
	if high {
		value = 1
	}
	detected := !high // LOW = gas detected

	reading, err := protocol.NewSmokeReadingMessage(value, detected)
	if err != nil {
		return nil, err
	}

	sample := &Sample{Reading: reading}
	if detected {
		alert, err := protocol.NewAlertMessage(protocol.TypeSmokeAlert, SmokeAlertText)
		if err != nil {
			return nil, err
		}
		sample.Alert = alert
	}
	return sample, nil
}

// Close releases the GPIO pin.
func (s *SmokeSensor) Close() error {
	return s.line.Close()
}
