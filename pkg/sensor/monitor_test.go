package sensor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shs-system/go-homehub/pkg/protocol"
)

// fakeSensor scripts a sequence of samples for the monitor.
type fakeSensor struct {
	name string

	mu      sync.Mutex
	samples []*Sample
	errs    []error
	calls   int
	closed  bool
}

func (f *fakeSensor) Name() string { return f.name }

func (f *fakeSensor) Sample() (*Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.samples) {
		return f.samples[i], nil
	}
	return nil, nil
}

func (f *fakeSensor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSensor) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// captureBroadcaster records everything broadcast to it.
type captureBroadcaster struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (c *captureBroadcaster) BroadcastJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, v)
	return nil
}

func (c *captureBroadcaster) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func mustReading(t *testing.T, value int, detected bool) *Sample {
	t.Helper()
	reading, err := protocol.NewSmokeReadingMessage(value, detected)
	if err != nil {
		t.Fatal(err)
	}
	s := &Sample{Reading: reading}
	if detected {
		alert, err := protocol.NewAlertMessage(protocol.TypeSmokeAlert, SmokeAlertText)
		if err != nil {
			t.Fatal(err)
		}
		s.Alert = alert
	}
	return s
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestMonitorPublishesReadingAndAlert(t *testing.T) {
	out := &captureBroadcaster{}
	s := &fakeSensor{
		name:    "smoke",
		samples: []*Sample{mustReading(t, 0, true)},
	}

	m := NewMonitor(s, 10*time.Millisecond, out)
	m.Start()
	defer m.Stop()

	// One reading plus one alert from the immediate first tick
	waitFor(t, 2*time.Second, func() bool { return out.Count() >= 2 })

	if m.Latest() == nil {
		t.Error("Latest() should be set after first sample")
	}
	if m.LatestReading().Type != protocol.TypeSmokeReading {
		t.Errorf("latest reading type = %v", m.LatestReading().Type)
	}
}

func TestMonitorSkipsNilSamples(t *testing.T) {
	out := &captureBroadcaster{}
	s := &fakeSensor{name: "water_level"} // only nil samples

	m := NewMonitor(s, 10*time.Millisecond, out)
	m.Start()
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.calls >= 3
	})

	if out.Count() != 0 {
		t.Errorf("broadcast count = %d, want 0 for nil samples", out.Count())
	}
	if m.Latest() != nil {
		t.Error("Latest() should stay nil when no data arrives")
	}
}

func TestMonitorSurvivesReadErrors(t *testing.T) {
	out := &captureBroadcaster{}
	s := &fakeSensor{
		name:    "smoke",
		errs:    []error{errors.New("transient")},
		samples: []*Sample{nil, mustReading(t, 1, false)},
	}

	m := NewMonitor(s, 10*time.Millisecond, out)
	m.Start()
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return out.Count() >= 1 })

	_, errs := m.Stats()
	if errs == 0 {
		t.Error("error counter should have incremented")
	}
}

func TestMonitorStopsWhenSensorCloses(t *testing.T) {
	out := &captureBroadcaster{}
	s := &fakeSensor{
		name: "water_level",
		errs: []error{ErrClosed},
	}

	m := NewMonitor(s, 10*time.Millisecond, out)
	m.Start()

	// A dead sensor must stop the loop instead of erroring every tick
	waitFor(t, 2*time.Second, func() bool { return !m.Running() })

	time.Sleep(50 * time.Millisecond)
	s.mu.Lock()
	calls := s.calls
	s.mu.Unlock()
	if calls != 1 {
		t.Errorf("sample calls after self-stop = %d, want 1", calls)
	}

	_, errs := m.Stats()
	if errs != 1 {
		t.Errorf("error count = %d, want 1", errs)
	}
}

func TestMonitorStartStopIdempotent(t *testing.T) {
	out := &captureBroadcaster{}
	m := NewMonitor(&fakeSensor{name: "rain"}, time.Hour, out)

	m.Start()
	m.Start() // no-op
	if !m.Running() {
		t.Fatal("monitor should be running")
	}

	m.Stop()
	m.Stop() // no-op
	if m.Running() {
		t.Fatal("monitor should be stopped")
	}
}

func TestSupervisorLifecycle(t *testing.T) {
	out := &captureBroadcaster{}
	sup := NewSupervisor()

	rain := &fakeSensor{name: "rain"}
	smoke := &fakeSensor{name: "smoke", samples: []*Sample{mustReading(t, 1, false)}}

	sup.Add(rain, 10*time.Millisecond, out)
	sup.Add(smoke, 10*time.Millisecond, out)

	if sup.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", sup.Count())
	}

	sup.StartAll()
	for name, running := range sup.Running() {
		if !running {
			t.Errorf("sensor %s should be running", name)
		}
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(sup.Latest()) == 1 // only smoke produced data
	})
	if _, ok := sup.Latest()["smoke"]; !ok {
		t.Error("Latest() should contain smoke reading")
	}

	sup.StopAll()
	for name, running := range sup.Running() {
		if running {
			t.Errorf("sensor %s should be stopped", name)
		}
	}
	if !rain.Closed() || !smoke.Closed() {
		t.Error("StopAll should close the sensors")
	}

	if sup.Get("rain") == nil {
		t.Error("Get(rain) should return the monitor")
	}
	if sup.Get("nope") != nil {
		t.Error("Get(nope) should return nil")
	}
}
