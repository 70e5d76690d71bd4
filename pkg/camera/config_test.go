package camera

import (
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); errs != nil {
		t.Errorf("default config should validate, got %v", errs)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("default resolution = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"width too small", func(c *Config) { c.Width = 100 }, true},
		{"width too large", func(c *Config) { c.Width = 4000 }, true},
		{"height too small", func(c *Config) { c.Height = 100 }, true},
		{"quality zero", func(c *Config) { c.Quality = 0 }, true},
		{"quality over 100", func(c *Config) { c.Quality = 101 }, true},
		{"interval too short", func(c *Config) { c.IntervalMs = 10 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			errs := cfg.Validate()
			if (errs != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatalf("preset %q missing", name)
			}
			if errs := cfg.Validate(); errs != nil {
				t.Errorf("preset %q invalid: %v", name, errs)
			}
		})
	}

	if GetPreset("nope") != nil {
		t.Error("unknown preset should return nil")
	}
}
