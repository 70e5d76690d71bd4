package camera

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/shs-system/go-homehub/internal/log"
)

// Frame is one captured JPEG frame.
type Frame struct {
	JPEG   []byte
	Width  int
	Height int
	ID     uint64
}

// FrameFunc receives captured frames.
type FrameFunc func(Frame)

// retryDelay is how long to back off after a failed device read.
const retryDelay = 500 * time.Millisecond

// videoDevice is the slice of gocv.VideoCapture the loop needs. It
// exists so capture can be tested without a physical camera.
type videoDevice interface {
	Read(img *gocv.Mat) bool
	Set(prop gocv.VideoCaptureProperties, param float64)
	IsOpened() bool
	Close() error
}

func openDevice(index int) (videoDevice, error) {
	d, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Capture reads frames from an OpenCV video device on an interval and
// hands JPEGs to a callback. The device is not safe for concurrent use,
// so only the capture goroutine touches it once the loop is running;
// config updates are staged and applied there before the next read.
type Capture struct {
	index int
	mgr   *Manager
	open  func(index int) (videoDevice, error)

	mu      sync.Mutex
	device  videoDevice
	pending *Config
	running bool
	stop    chan struct{}
	done    chan struct{}

	onFrame FrameFunc
	frameID atomic.Uint64
}

// NewCapture creates a capture bound to the given device index.
// The manager's OnConfigChange is wired so API updates reach the device.
func NewCapture(index int, mgr *Manager) *Capture {
	c := &Capture{
		index: index,
		mgr:   mgr,
		open:  openDevice,
	}
	mgr.OnConfigChange = c.applyConfig
	return c
}

// SetOnFrame sets the frame callback. Must be called before Start.
func (c *Capture) SetOnFrame(fn FrameFunc) {
	c.onFrame = fn
}

// Start opens the device and begins the capture loop in a goroutine.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	device, err := c.open(c.index)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.index, err)
	}
	if !device.IsOpened() {
		device.Close()
		return fmt.Errorf("camera %d did not open", c.index)
	}

	// The loop is not running yet, so touching the device here is fine.
	cfg := c.mgr.GetConfig()
	device.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	device.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	c.device = device
	c.pending = nil
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	log.Info("camera opened", "index", c.index, "width", cfg.Width, "height", cfg.Height)
	go c.loop(c.stop, c.done)
	return nil
}

// Stop halts the capture loop and blocks until the device is released,
// so a following Start never races the old session.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stop)
	done := c.done
	c.mu.Unlock()

	<-done
}

// Running reports whether the capture loop is active.
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// applyConfig stages new settings for the capture goroutine, which
// pushes them to the device before its next read.
func (c *Capture) applyConfig(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return nil // Applied on next Start
	}
	c.pending = &cfg
	return nil
}

func (c *Capture) loop(stop, done chan struct{}) {
	defer close(done)

	img := gocv.NewMat()
	defer img.Close()
	defer c.closeDevice()

	for {
		cfg := c.mgr.GetConfig()

		select {
		case <-stop:
			return
		case <-time.After(time.Duration(cfg.IntervalMs) * time.Millisecond):
		}

		c.mu.Lock()
		device := c.device
		pending := c.pending
		c.pending = nil
		c.mu.Unlock()
		if device == nil {
			return
		}

		if pending != nil {
			device.Set(gocv.VideoCaptureFrameWidth, float64(pending.Width))
			device.Set(gocv.VideoCaptureFrameHeight, float64(pending.Height))
			log.Info("camera config applied", "width", pending.Width, "height", pending.Height,
				"quality", pending.Quality, "interval_ms", pending.IntervalMs)
		}

		if ok := device.Read(&img); !ok || img.Empty() {
			log.Warn("failed to capture frame", "index", c.index)
			time.Sleep(retryDelay)
			continue
		}

		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img,
			[]int{gocv.IMWriteJpegQuality, cfg.Quality})
		if err != nil {
			log.Error("jpeg encode failed", "error", err)
			continue
		}

		jpeg := make([]byte, len(buf.GetBytes()))
		copy(jpeg, buf.GetBytes())
		buf.Close()

		frame := Frame{
			JPEG:   jpeg,
			Width:  img.Cols(),
			Height: img.Rows(),
			ID:     c.frameID.Add(1),
		}

		if c.onFrame != nil {
			c.onFrame(frame)
		}
	}
}

func (c *Capture) closeDevice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		c.device.Close()
		c.device = nil
	}
	log.Info("camera released", "index", c.index)
}

// FrameCount returns the number of frames captured so far.
func (c *Capture) FrameCount() uint64 {
	return c.frameID.Load()
}
