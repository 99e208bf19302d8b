package common

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.Model.ServerURL != "http://localhost:9090" {
		t.Errorf("ServerURL = %s", cfg.Model.ServerURL)
	}
	if cfg.Model.MaxSeqLength != 512 {
		t.Errorf("MaxSeqLength = %d", cfg.Model.MaxSeqLength)
	}
	if cfg.Model.Threshold != 0.5 {
		t.Errorf("Threshold = %f", cfg.Model.Threshold)
	}
	if cfg.Imaging.DPI != 200 || cfg.Imaging.MaxDimension != 2000 {
		t.Errorf("Imaging = %+v", cfg.Imaging)
	}
	if cfg.Pipeline.Workers != 4 || cfg.Pipeline.KeepOther {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MODEL_SERVER_URL", "http://models:8000")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("MODEL_TIMEOUT", "10s")
	t.Setenv("PIPELINE_WORKERS", "2")
	t.Setenv("KEEP_OTHER_ENTITIES", "true")

	cfg := LoadConfig()
	if cfg.Model.ServerURL != "http://models:8000" {
		t.Errorf("ServerURL = %s", cfg.Model.ServerURL)
	}
	if cfg.Model.Threshold != 0.8 {
		t.Errorf("Threshold = %f", cfg.Model.Threshold)
	}
	if cfg.Model.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s", cfg.Model.Timeout)
	}
	if cfg.Pipeline.Workers != 2 || !cfg.Pipeline.KeepOther {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MODEL_MAX_SEQ_LENGTH", "not-a-number")
	t.Setenv("CONFIDENCE_THRESHOLD", "lots")

	cfg := LoadConfig()
	if cfg.Model.MaxSeqLength != 512 || cfg.Model.Threshold != 0.5 {
		t.Errorf("malformed env did not fall back to defaults: %+v", cfg.Model)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty server url", func(c *Config) { c.Model.ServerURL = "" }},
		{"zero seq length", func(c *Config) { c.Model.MaxSeqLength = 0 }},
		{"threshold above one", func(c *Config) { c.Model.Threshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.Model.Threshold = -0.1 }},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
