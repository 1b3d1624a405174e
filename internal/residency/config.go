package residency

import (
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for a residency check
type Config struct {
	// Card is the DRM card index to test.
	// Default: -1 (first Intel card)
	Card int

	// SettleDelay lets earlier GPU activity (compositing, previous tests)
	// drain before the enable flag is read. It is a grace period, not an
	// idle signal.
	// Default: 5s
	SettleDelay time.Duration

	// Duration is the measurement sleep between the two samples.
	// Default: 3000ms
	Duration time.Duration

	// Fudge is the tolerance either side of Duration.
	// Default: 900ms
	Fudge time.Duration

	// SkipVirtualized skips the check when running as a VM guest
	SkipVirtualized bool
}

// DefaultConfig returns default residency check configuration
func DefaultConfig() Config {
	return Config{
		Card:        -1,
		SettleDelay: 5 * time.Second,
		Duration:    3000 * time.Millisecond,
		Fudge:       900 * time.Millisecond,
	}
}

// Validate checks that the config is usable
func (c *Config) Validate() error {
	var errs []error
	if c.Card < -1 {
		errs = append(errs, fmt.Errorf("card must be >= -1, got %d", c.Card))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle delay must not be negative, got %s", c.SettleDelay))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %s", c.Duration))
	}
	if c.Fudge < 0 {
		errs = append(errs, fmt.Errorf("fudge must not be negative, got %s", c.Fudge))
	}
	if c.Duration > 0 && c.Fudge >= c.Duration {
		errs = append(errs, fmt.Errorf("fudge %s must be smaller than duration %s", c.Fudge, c.Duration))
	}
	return errors.Join(errs...)
}

// Window returns the accepted aggregate residency range in milliseconds, inclusive
func (c *Config) Window() (low, high int64) {
	d := c.Duration.Milliseconds()
	f := c.Fudge.Milliseconds()
	return d - f, d + f
}
