// Package waterlevel reads the water level sensor attached over a serial
// line. The probe's microcontroller prints one integer reading per line;
// anything else on the wire is noise and gets skipped.
package waterlevel

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"github.com/shs-system/go-homehub/internal/log"
	"github.com/shs-system/go-homehub/pkg/protocol"
	"github.com/shs-system/go-homehub/pkg/sensor"
)

// WaterAlertText is the alert message sent while the level is high.
const WaterAlertText = "High water level detected!"

// ErrPortClosed is returned by Sample once the serial line has gone away.
// It wraps sensor.ErrClosed, so the monitor stops polling a dead port.
var ErrPortClosed = fmt.Errorf("waterlevel: serial port closed: %w", sensor.ErrClosed)

// readingBuffer is how many parsed readings can queue between ticks.
const readingBuffer = 16

// Sensor reads integer water-level values from a serial port.
// A background goroutine owns the blocking reads; Sample never blocks,
// mirroring the in_waiting check the Python module did.
type Sensor struct {
	port      io.ReadCloser
	threshold int

	readings chan int
}

// Open opens the serial device and starts the reader goroutine.
func Open(device string, baud, threshold int) (*Sensor, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	return New(port, threshold), nil
}

// New wraps an already-open serial stream. Split out from Open so tests
// can feed the parser from a pipe.
func New(port io.ReadCloser, threshold int) *Sensor {
	s := &Sensor{
		port:      port,
		threshold: threshold,
		readings:  make(chan int, readingBuffer),
	}
	go s.readLoop()
	return s
}

// Name implements sensor.Sensor.
func (s *Sensor) Name() string {
	return "water_level"
}

// Threshold returns the configured high-water threshold.
func (s *Sensor) Threshold() int {
	return s.threshold
}

// HighWater reports whether a value counts as a high water level.
func (s *Sensor) HighWater(value int) bool {
	return value >= s.threshold
}

// Sample returns the next queued reading, or nil if the line was idle.
func (s *Sensor) Sample() (*sensor.Sample, error) {
	select {
	case value, ok := <-s.readings:
		if !ok {
			return nil, ErrPortClosed
		}
		return s.buildSample(value)
	default:
		return nil, nil
	}
}

func (s *Sensor) buildSample(value int) (*sensor.Sample, error) {
	high := s.HighWater(value)

	reading, err := protocol.NewWaterReadingMessage(value, high)
	if err != nil {
		return nil, err
	}

	sample := &sensor.Sample{Reading: reading}
	if high {
		alert, err := protocol.NewAlertMessage(protocol.TypeWaterAlert, WaterAlertText)
		if err != nil {
			return nil, err
		}
		sample.Alert = alert
	}
	return sample, nil
}

// readLoop parses newline-delimited integers off the serial line.
func (s *Sensor) readLoop() {
	defer close(s.readings)

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		value, err := strconv.Atoi(line)
		if err != nil {
			log.Warn("invalid water level data", "line", line)
			continue
		}

		select {
		case s.readings <- value:
		default:
			// Nobody is draining fast enough; drop the oldest so the
			// queue tracks the freshest readings.
			select {
			case <-s.readings:
			default:
			}
			s.readings <- value
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error("serial read ended", "error", err)
	}
}

// Close closes the serial port, which also stops the reader goroutine.
func (s *Sensor) Close() error {
	return s.port.Close()
}
