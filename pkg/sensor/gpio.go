package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Line reads a single digital GPIO line. It exists so the GPIO sensors
// can be tested without a Raspberry Pi.
type Line interface {
	// Read returns the current level; true is high.
	Read() (bool, error)

	// Close releases the pin.
	Close() error
}

// periphLine adapts a periph.io pin to the Line interface.
type periphLine struct {
	pin gpio.PinIO
}

// OpenLine configures a GPIO pin as a digital input.
// name is a periph pin name such as "GPIO18". The caller must have run
// host.Init() first.
func OpenLine(name string, pull gpio.Pull) (Line, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure pin %s as input: %w", name, err)
	}
	return &periphLine{pin: pin}, nil
}

func (l *periphLine) Read() (bool, error) {
	return bool(l.pin.Read()), nil
}

func (l *periphLine) Close() error {
	return l.pin.Halt()
}
