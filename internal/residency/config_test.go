package residency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, -1, cfg.Card)
	assert.Equal(t, 5*time.Second, cfg.SettleDelay)
	assert.Equal(t, 3*time.Second, cfg.Duration)
	assert.Equal(t, 900*time.Millisecond, cfg.Fudge)
	assert.False(t, cfg.SkipVirtualized)
	assert.NoError(t, cfg.Validate())
}

func TestWindow(t *testing.T) {
	cfg := DefaultConfig()

	low, high := cfg.Window()

	assert.Equal(t, int64(2100), low)
	assert.Equal(t, int64(3900), high)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"card below auto", func(c *Config) { c.Card = -2 }, "card must be >= -1"},
		{"negative settle", func(c *Config) { c.SettleDelay = -time.Second }, "settle delay must not be negative"},
		{"zero duration", func(c *Config) { c.Duration = 0 }, "duration must be positive"},
		{"negative fudge", func(c *Config) { c.Fudge = -time.Millisecond }, "fudge must not be negative"},
		{"fudge swallows duration", func(c *Config) { c.Fudge = c.Duration }, "must be smaller than duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidate_ZeroSettleAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SettleDelay = 0

	assert.NoError(t, cfg.Validate())
}
