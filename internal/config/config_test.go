package config

import (
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/input/video.mp4", "/output")

	if cfg.Input != "/input/video.mp4" {
		t.Errorf("expected Input=/input/video.mp4, got %s", cfg.Input)
	}
	if cfg.OutputDir != "/output" {
		t.Errorf("expected OutputDir=/output, got %s", cfg.OutputDir)
	}

	if cfg.Workers != DefaultWorkers {
		t.Errorf("expected Workers=%d, got %d", DefaultWorkers, cfg.Workers)
	}
	if cfg.SampleRateFPS != DefaultSampleRateFPS {
		t.Errorf("expected SampleRateFPS=%g, got %g", DefaultSampleRateFPS, cfg.SampleRateFPS)
	}
	if cfg.Skip != DefaultSkip {
		t.Errorf("expected Skip=%d, got %d", DefaultSkip, cfg.Skip)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "default config is valid",
			modify: func(c *Config) {},
		},
		{
			name:    "empty input is invalid",
			modify:  func(c *Config) { c.Input = "" },
			wantErr: true,
		},
		{
			name:    "zero workers is invalid",
			modify:  func(c *Config) { c.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "17 workers is invalid",
			modify:  func(c *Config) { c.Workers = 17 },
			wantErr: true,
		},
		{
			name:   "16 workers is valid",
			modify: func(c *Config) { c.Workers = 16 },
		},
		{
			name:    "zero queue depth is invalid",
			modify:  func(c *Config) { c.QueueDepth = 0 },
			wantErr: true,
		},
		{
			name:    "negative dedup window is invalid",
			modify:  func(c *Config) { c.DedupWindow = -1 },
			wantErr: true,
		},
		{
			name:    "zero sample rate is invalid",
			modify:  func(c *Config) { c.SampleRateFPS = 0 },
			wantErr: true,
		},
		{
			name:    "zero skip is invalid",
			modify:  func(c *Config) { c.Skip = 0 },
			wantErr: true,
		},
		{
			name:    "rotation 45 is invalid",
			modify:  func(c *Config) { c.Rotation = 45 },
			wantErr: true,
		},
		{
			name:   "rotation 270 is valid",
			modify: func(c *Config) { c.Rotation = 270 },
		},
		{
			name:    "negative start offset is invalid",
			modify:  func(c *Config) { c.StartOffsetSecs = -1 },
			wantErr: true,
		},
		{
			name:    "negative max frames is invalid",
			modify:  func(c *Config) { c.MaxFrames = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/input/video.mp4", "/output")
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAutoWorkerCount(t *testing.T) {
	tests := []struct {
		cores    int
		expected int
	}{
		{0, DefaultWorkers},
		{-1, DefaultWorkers},
		{4, 4},
		{16, 16},
		{32, MaxWorkers},
	}

	for _, tt := range tests {
		if got := AutoWorkerCount(tt.cores); got != tt.expected {
			t.Errorf("AutoWorkerCount(%d) = %d, want %d", tt.cores, got, tt.expected)
		}
	}
}

func TestGetOutputDir(t *testing.T) {
	cfg := NewConfig("/input/video.mp4", "")
	if got := cfg.GetOutputDir(); got != DefaultOutputDir {
		t.Errorf("GetOutputDir() = %s, want %s", got, DefaultOutputDir)
	}

	cfg.OutputDir = "/custom"
	if got := cfg.GetOutputDir(); got != "/custom" {
		t.Errorf("GetOutputDir() = %s, want /custom", got)
	}
}
