package lumen

import (
	"errors"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultLightingConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MaxPointLights != 64 {
		t.Errorf("MaxPointLights = %d, want 64", cfg.MaxPointLights)
	}
	if cfg.CascadeCount != 4 {
		t.Errorf("CascadeCount = %d, want 4", cfg.CascadeCount)
	}
	if cfg.ClusterDimensions != [3]int{16, 9, 24} {
		t.Errorf("ClusterDimensions = %v", cfg.ClusterDimensions)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LightingConfig)
		field  string
	}{
		{"zero point lights", func(c *LightingConfig) { c.MaxPointLights = 0 }, "MaxPointLights"},
		{"negative area lights", func(c *LightingConfig) { c.MaxAreaLights = -1 }, "MaxAreaLights"},
		{"zero resolution", func(c *LightingConfig) { c.ShadowMapResolution = 0 }, "ShadowMapResolution"},
		{"zero cascades", func(c *LightingConfig) { c.CascadeCount = 0 }, "CascadeCount"},
		{"too many cascades", func(c *LightingConfig) { c.CascadeCount = MaxCascades + 1 }, "CascadeCount"},
		{"zero pcf samples", func(c *LightingConfig) { c.PCFSamples = 0 }, "PCFSamples"},
		{"zero cluster dim", func(c *LightingConfig) { c.ClusterDimensions[1] = 0 }, "ClusterDimensions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLightingConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Validate() = %v, want ConfigError", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("ConfigError.Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}
