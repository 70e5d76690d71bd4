// Package config provides daemon configuration for homehub.
// Values come from environment variables (optionally loaded from a .env
// file) with defaults matching the original Raspberry Pi wiring.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the Raspberry Pi deployment.
const (
	DefaultPort = "5000"

	// FC37 / YL-83 rain sensor, physical pin 12
	DefaultRainPin = "GPIO18"

	// MQ2 smoke sensor, physical pin 11
	DefaultSmokePin = "GPIO17"

	DefaultSerialDevice = "/dev/ttyUSB0"
	DefaultSerialBaud   = 9600

	DefaultWaterThreshold = 500

	DefaultPollInterval = time.Second

	DefaultCameraIndex   = 0
	DefaultCameraWidth   = 640
	DefaultCameraHeight  = 480
	DefaultCameraQuality = 85
	DefaultFrameInterval = time.Second
	DefaultMLServerURL   = "ws://localhost:5001/ws"
)

// Config holds the homehub daemon configuration.
type Config struct {
	Port     string
	LogLevel string

	// Sensors
	RainPin        string
	SmokePin       string
	SerialDevice   string
	SerialBaud     int
	WaterThreshold int
	PollInterval   time.Duration

	// Camera / ML
	CameraEnabled bool
	CameraIndex   int
	CameraWidth   int
	CameraHeight  int
	CameraQuality int
	FrameInterval time.Duration
	MLServerURL   string
}

// Load builds a Config from the environment. If envFile is non-empty it is
// loaded first (missing file is not an error; a .env is optional in dev).
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:           getEnv("HOMEHUB_PORT", DefaultPort),
		LogLevel:       getEnv("HOMEHUB_LOG_LEVEL", "info"),
		RainPin:        getEnv("HOMEHUB_RAIN_PIN", DefaultRainPin),
		SmokePin:       getEnv("HOMEHUB_SMOKE_PIN", DefaultSmokePin),
		SerialDevice:   getEnv("HOMEHUB_SERIAL_DEVICE", DefaultSerialDevice),
		SerialBaud:     getEnvInt("HOMEHUB_SERIAL_BAUD", DefaultSerialBaud),
		WaterThreshold: getEnvInt("HOMEHUB_WATER_THRESHOLD", DefaultWaterThreshold),
		PollInterval:   getEnvDuration("HOMEHUB_POLL_INTERVAL", DefaultPollInterval),
		CameraEnabled:  getEnvBool("HOMEHUB_CAMERA_ENABLED", true),
		CameraIndex:    getEnvInt("HOMEHUB_CAMERA_INDEX", DefaultCameraIndex),
		CameraWidth:    getEnvInt("HOMEHUB_CAMERA_WIDTH", DefaultCameraWidth),
		CameraHeight:   getEnvInt("HOMEHUB_CAMERA_HEIGHT", DefaultCameraHeight),
		CameraQuality:  getEnvInt("HOMEHUB_CAMERA_QUALITY", DefaultCameraQuality),
		FrameInterval:  getEnvDuration("HOMEHUB_FRAME_INTERVAL", DefaultFrameInterval),
		MLServerURL:    getEnv("HOMEHUB_ML_SERVER_URL", DefaultMLServerURL),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.SerialBaud <= 0 {
		return fmt.Errorf("serial baud must be positive, got %d", c.SerialBaud)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %s", c.FrameInterval)
	}
	if c.CameraIndex < 0 {
		return fmt.Errorf("camera index must be >= 0, got %d", c.CameraIndex)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
