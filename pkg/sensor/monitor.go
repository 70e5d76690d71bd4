package sensor

import (
	"errors"
	"sync"
	"time"

	"github.com/shs-system/go-homehub/internal/log"
	"github.com/shs-system/go-homehub/pkg/protocol"
)

// Monitor polls a single sensor on an interval and broadcasts each
// observation. One goroutine per sensor, like the Python backend's one
// thread per sensor, but stopped via channel instead of a flag.
type Monitor struct {
	sensor   Sensor
	interval time.Duration
	out      Broadcaster

	mu      sync.RWMutex
	running bool
	latest  *Sample
	stop    chan struct{}

	// Stats
	published uint64
	errors    uint64
}

// NewMonitor creates a monitor for the given sensor.
func NewMonitor(s Sensor, interval time.Duration, out Broadcaster) *Monitor {
	return &Monitor{
		sensor:   s,
		interval: interval,
		out:      out,
	}
}

// Name returns the monitored sensor's name.
func (m *Monitor) Name() string {
	return m.sensor.Name()
}

// Start begins the polling loop in a goroutine. Starting a running
// monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		log.Warn("monitor already running", "sensor", m.sensor.Name())
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	log.Info("monitoring started", "sensor", m.sensor.Name(), "interval", m.interval)
	go m.loop(stop)
}

// Stop halts the polling loop. Safe to call repeatedly.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stop)
}

// Running reports whether the polling loop is active.
func (m *Monitor) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Latest returns the most recent sample, or nil before the first one.
func (m *Monitor) Latest() *Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// LatestReading returns the most recent reading message, or nil.
func (m *Monitor) LatestReading() *protocol.Message {
	if s := m.Latest(); s != nil {
		return s.Reading
	}
	return nil
}

func (m *Monitor) loop(stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Take an immediate first sample rather than waiting a full tick.
	if !m.tick() {
		m.Stop()
		return
	}

	for {
		select {
		case <-stop:
			log.Info("monitoring stopped", "sensor", m.sensor.Name())
			return
		case <-ticker.C:
			if !m.tick() {
				m.Stop()
				return
			}
		}
	}
}

// tick takes one sample and reports whether polling should continue.
func (m *Monitor) tick() bool {
	sample, err := m.sensor.Sample()
	if err != nil {
		m.mu.Lock()
		m.errors++
		m.mu.Unlock()
		if errors.Is(err, ErrClosed) {
			log.Error("sensor gone, monitoring stopped", "sensor", m.sensor.Name(), "error", err)
			return false
		}
		log.Error("sensor read failed", "sensor", m.sensor.Name(), "error", err)
		return true
	}
	if sample == nil {
		// No data this tick (idle serial line)
		return true
	}

	m.mu.Lock()
	m.latest = sample
	m.published++
	m.mu.Unlock()

	if err := m.out.BroadcastJSON(sample.Reading); err != nil {
		log.Error("broadcast reading failed", "sensor", m.sensor.Name(), "error", err)
	}
	if sample.Alert != nil {
		log.Warn("sensor alert", "sensor", m.sensor.Name(), "type", sample.Alert.Type)
		if err := m.out.BroadcastJSON(sample.Alert); err != nil {
			log.Error("broadcast alert failed", "sensor", m.sensor.Name(), "error", err)
		}
	}
	return true
}

// Stats returns publish/error counters for diagnostics.
func (m *Monitor) Stats() (published, errors uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published, m.errors
}
