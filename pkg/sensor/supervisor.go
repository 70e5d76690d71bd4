package sensor

import (
	"sync"
	"time"

	"github.com/shs-system/go-homehub/internal/log"
	"github.com/shs-system/go-homehub/pkg/protocol"
)

// Supervisor owns the sensor monitors. It is the Go counterpart of the
// Python backend's sensor_threads dict: start everything at boot, report
// per-sensor running state, tear everything down on shutdown.
type Supervisor struct {
	mu       sync.RWMutex
	monitors map[string]*Monitor
	order    []string
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		monitors: make(map[string]*Monitor),
	}
}

// Add registers a sensor with its own poll interval and broadcaster.
func (s *Supervisor) Add(sensor Sensor, interval time.Duration, out Broadcaster) *Monitor {
	m := NewMonitor(sensor, interval, out)

	s.mu.Lock()
	s.monitors[sensor.Name()] = m
	s.order = append(s.order, sensor.Name())
	s.mu.Unlock()

	return m
}

// StartAll starts every registered monitor.
func (s *Supervisor) StartAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.order {
		s.monitors[name].Start()
	}
}

// StopAll stops every monitor and closes the underlying sensors.
func (s *Supervisor) StopAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.order {
		m := s.monitors[name]
		m.Stop()
		if err := m.sensor.Close(); err != nil {
			log.Error("sensor close failed", "sensor", name, "error", err)
		}
	}
}

// Running returns the per-sensor running state for /api/status.
func (s *Supervisor) Running() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make(map[string]bool, len(s.monitors))
	for name, m := range s.monitors {
		states[name] = m.Running()
	}
	return states
}

// Latest returns the most recent reading per sensor. Sensors that have
// not produced data yet are omitted.
func (s *Supervisor) Latest() map[string]*protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := make(map[string]*protocol.Message)
	for name, m := range s.monitors {
		if r := m.LatestReading(); r != nil {
			readings[name] = r
		}
	}
	return readings
}

// Get returns the monitor for a sensor name, or nil.
func (s *Supervisor) Get(name string) *Monitor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitors[name]
}

// Count returns the number of registered sensors.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.monitors)
}
