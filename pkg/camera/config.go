// Package camera provides OpenCV frame capture with runtime-tunable
// settings. Configuration changes arrive over the HTTP API and are
// applied to the device without restarting the daemon.
package camera

// Config holds the camera parameters that can be changed at runtime.
type Config struct {
	Width      int `json:"width"`       // Frame width in pixels
	Height     int `json:"height"`      // Frame height in pixels
	Quality    int `json:"quality"`     // JPEG quality 1-100
	IntervalMs int `json:"interval_ms"` // Time between captures
}

// Capture limits for the USB webcams this runs with.
const (
	MaxWidth      = 1920
	MaxHeight     = 1080
	MinIntervalMs = 50 // 20 fps ceiling, the Pi can't push more through the bridge
)

// DefaultConfig returns the stock configuration: VGA at one frame per
// second, matching the original deployment.
func DefaultConfig() Config {
	return Config{
		Width:      640,
		Height:     480,
		Quality:    85,
		IntervalMs: 1000,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 1920")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 1080")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.IntervalMs < MinIntervalMs {
		errors = append(errors, "interval_ms must be at least 50")
	}

	return errors
}
