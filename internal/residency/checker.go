package residency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/worldland/rc6check/internal/domain"
)

var (
	ErrSimulation       = errors.New("running in simulation")
	ErrVirtualized      = errors.New("running as a virtual machine guest")
	ErrCounterReset     = errors.New("residency counter went backwards")
	ErrResidencyTooHigh = errors.New("measured residency improbably high")
	ErrNotIdle          = errors.New("GPU insufficiently idle")
)

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the default SleepFunc
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Checker verifies that an idle GPU accrues RC6 residency at wall-clock rate
type Checker struct {
	config   Config
	locator  domain.DeviceLocator
	counters domain.CounterReader
	env      domain.Environment
	sleep    SleepFunc
	probes   []domain.ActivityProbe
	now      func() time.Time
}

// NewChecker creates a residency checker. A nil sleep uses ContextSleep.
func NewChecker(cfg Config, locator domain.DeviceLocator, counters domain.CounterReader, env domain.Environment, sleep SleepFunc, probes ...domain.ActivityProbe) *Checker {
	if sleep == nil {
		sleep = ContextSleep
	}
	return &Checker{
		config:   cfg,
		locator:  locator,
		counters: counters,
		env:      env,
		sleep:    sleep,
		probes:   probes,
		now:      time.Now,
	}
}

// Run performs one check. The report always carries the outcome; the
// returned error explains a skip or a failure.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	low, high := c.config.Window()
	r := &Report{LowMS: low, HighMS: high, StartedAt: c.now()}

	if err := c.config.Validate(); err != nil {
		return c.finish(r, OutcomeFail, fmt.Errorf("invalid config: %w", err))
	}

	if c.env.Simulated() {
		return c.finish(r, OutcomeSkip, ErrSimulation)
	}
	if c.config.SkipVirtualized {
		virt, err := c.env.Virtualized(ctx)
		if err != nil {
			slog.Warn("virtualization detection failed, continuing", "error", err)
		} else if virt {
			return c.finish(r, OutcomeSkip, ErrVirtualized)
		}
	}

	// Existence check only; the handle is not used for the sysfs reads
	dev, err := c.locator.Find(c.config.Card)
	if err != nil {
		return c.finish(r, OutcomeFail, err)
	}
	r.Device = &dev
	if err := c.locator.Open(dev); err != nil {
		return c.finish(r, OutcomeFail, err)
	}

	slog.Debug("waiting for GPU to settle", "card", dev.Index, "delay", c.config.SettleDelay)
	if err := c.sleep(ctx, c.config.SettleDelay); err != nil {
		return c.finish(r, OutcomeFail, fmt.Errorf("settle wait: %w", err))
	}

	enable, err := c.counters.Enabled(dev.Index)
	if err != nil {
		return c.finish(r, OutcomeFail, err)
	}
	r.RC6Enable = &enable
	if enable == 0 {
		r.Reason = "rc6 disabled, no residency expected"
		return c.finish(r, OutcomePass, nil)
	}

	before, err := c.counters.Sample(dev.Index)
	if err != nil {
		return c.finish(r, OutcomeFail, fmt.Errorf("baseline sample: %w", err))
	}
	r.Before = &before
	slog.Debug("baseline sample", "rc6", before.RC6.Value, "rc6p", before.RC6p.Value, "rc6pp", before.RC6pp.Value)

	if err := c.sleep(ctx, c.config.Duration); err != nil {
		return c.finish(r, OutcomeFail, fmt.Errorf("measurement wait: %w", err))
	}

	after, err := c.counters.Sample(dev.Index)
	if err != nil {
		return c.finish(r, OutcomeFail, fmt.Errorf("second sample: %w", err))
	}
	r.After = &after
	slog.Debug("second sample", "rc6", after.RC6.Value, "rc6p", after.RC6p.Value, "rc6pp", after.RC6pp.Value)

	r.Deltas = Deltas(before, after)
	r.DiffMS = Sum(r.Deltas)

	for _, d := range r.Deltas {
		if d.Diff < 0 {
			return c.finish(r, OutcomeFail, fmt.Errorf("%w: %s %d -> %d", ErrCounterReset, d.Name, d.Before, d.After))
		}
	}

	if r.DiffMS > high {
		return c.finish(r, OutcomeFail, fmt.Errorf("%w: %dms exceeds %dms, suspect a counter or clock anomaly",
			ErrResidencyTooHigh, r.DiffMS, high))
	}
	if r.DiffMS < low {
		r.Activity = c.collectActivity(ctx)
		return c.finish(r, OutcomeFail, fmt.Errorf("%w: %dms below %dms, check that the GPU is as idle as possible "+
			"(no X and no other tests running)", ErrNotIdle, r.DiffMS, low))
	}

	return c.finish(r, OutcomePass, nil)
}

// collectActivity runs every probe; probe errors are logged, partial results kept
func (c *Checker) collectActivity(ctx context.Context) []domain.ActivitySample {
	var samples []domain.ActivitySample
	for _, p := range c.probes {
		got, err := p.Probe(ctx)
		if err != nil {
			slog.Warn("activity probe failed", "probe", p.Name(), "error", err)
		}
		samples = append(samples, got...)
	}
	return samples
}

func (c *Checker) finish(r *Report, outcome Outcome, err error) (*Report, error) {
	r.Outcome = outcome
	if err != nil {
		r.Reason = err.Error()
	}
	r.FinishedAt = c.now()
	slog.Info("residency check finished", "outcome", outcome, "diff_ms", r.DiffMS, "reason", r.Reason)
	return r, err
}
