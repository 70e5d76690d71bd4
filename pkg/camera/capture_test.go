package camera

import (
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

// fakeDevice stands in for a webcam so the capture loop can run in tests.
// Read always fails, which keeps the loop cycling without real frames.
type fakeDevice struct {
	mu     sync.Mutex
	sets   []float64
	reads  int
	closed bool
}

func (f *fakeDevice) Read(img *gocv.Mat) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return false
}

func (f *fakeDevice) Set(prop gocv.VideoCaptureProperties, param float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, param)
}

func (f *fakeDevice) IsOpened() bool { return true }

func (f *fakeDevice) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeDevice) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sets)
}

func (f *fakeDevice) lastSets(n int) []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sets) < n {
		return nil
	}
	out := make([]float64, n)
	copy(out, f.sets[len(f.sets)-n:])
	return out
}

func (f *fakeDevice) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newFakeCapture(t *testing.T) (*Capture, *fakeDevice, *Manager) {
	t.Helper()
	mgr := NewManager()
	cfg := mgr.GetConfig()
	cfg.IntervalMs = MinIntervalMs
	if err := mgr.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}

	c := NewCapture(0, mgr)
	dev := &fakeDevice{}
	c.open = func(int) (videoDevice, error) { return dev, nil }
	return c, dev, mgr
}

func TestStopReleasesDevice(t *testing.T) {
	c, dev, _ := newFakeCapture(t)

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !c.Running() {
		t.Fatal("capture should be running")
	}

	c.Stop()
	if c.Running() {
		t.Error("capture should be stopped")
	}
	if !dev.isClosed() {
		t.Error("Stop must wait for the device to be released")
	}
}

func TestRestartAfterStop(t *testing.T) {
	mgr := NewManager()
	c := NewCapture(0, mgr)

	var mu sync.Mutex
	var devices []*fakeDevice
	c.open = func(int) (videoDevice, error) {
		d := &fakeDevice{}
		mu.Lock()
		devices = append(devices, d)
		mu.Unlock()
		return d, nil
	}

	if err := c.Start(); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	c.Stop()

	if err := c.Start(); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	defer c.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(devices) != 2 {
		t.Fatalf("opened %d devices, want 2", len(devices))
	}
	if !devices[0].isClosed() {
		t.Error("first session's device should be closed before restart")
	}
	if devices[1].isClosed() {
		t.Error("second session's device must still be open")
	}
}

func TestStartWhileRunning(t *testing.T) {
	c, _, _ := newFakeCapture(t)

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	if err := c.Start(); err == nil {
		t.Error("second Start should fail while running")
	}
}

func TestConfigChangeAppliedByCaptureLoop(t *testing.T) {
	c, dev, mgr := newFakeCapture(t)

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	// Start itself pushes width and height
	base := dev.setCount()
	if base != 2 {
		t.Fatalf("sets after Start = %d, want 2", base)
	}

	cfg := mgr.GetConfig()
	cfg.Width = 1280
	cfg.Height = 720
	if err := mgr.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	// The update is staged; only the loop goroutine touches the device
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && dev.setCount() < base+2 {
		time.Sleep(10 * time.Millisecond)
	}
	if dev.setCount() < base+2 {
		t.Fatal("loop never applied the staged config")
	}

	last := dev.lastSets(2)
	if last[0] != 1280 || last[1] != 720 {
		t.Errorf("applied resolution = %vx%v, want 1280x720", last[0], last[1])
	}
}
