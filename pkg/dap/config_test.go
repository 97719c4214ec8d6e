package dap

import (
	"testing"

	"github.com/juju/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := &Config{VendorID: 0x0D28, ProductID: 0x0204, ClockHz: 4_000_000}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.WaitRetry != 64 || cfg.Timeout != DefaultTimeout || cfg.PollLimit != 100 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no vendor", func(c *Config) { c.VendorID = 0 }},
		{"no product", func(c *Config) { c.ProductID = 0 }},
		{"clock too slow", func(c *Config) { c.ClockHz = MinClockHz - 1 }},
		{"clock too fast", func(c *Config) { c.ClockHz = MaxClockHz + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.IsNotValid(err) {
				t.Errorf("Validate() = %v, want not valid", err)
			}
		})
	}
}
