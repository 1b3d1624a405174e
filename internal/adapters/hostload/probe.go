package hostload

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/load"
	"github.com/worldland/rc6check/internal/domain"
)

const ProbeName = "host"

// BusyCPUPercent marks the host busy when overall CPU usage reaches it
const BusyCPUPercent = 50.0

// Probe reports load average and CPU usage of the host
type Probe struct {
	interval time.Duration
	numCPU   int
	loadAvg  func(ctx context.Context) (*load.AvgStat, error)
	percent  func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
}

// NewProbe creates a host probe measuring CPU usage over interval
func NewProbe(interval time.Duration) *Probe {
	return &Probe{
		interval: interval,
		numCPU:   runtime.NumCPU(),
		loadAvg:  load.AvgWithContext,
		percent:  cpu.PercentWithContext,
	}
}

func (p *Probe) Name() string {
	return ProbeName
}

func (p *Probe) Probe(ctx context.Context) ([]domain.ActivitySample, error) {
	avg, err := p.loadAvg(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read load average: %w", err)
	}
	samples := []domain.ActivitySample{{
		Source:  ProbeName,
		Subject: "load",
		Detail:  fmt.Sprintf("load average %.2f %.2f %.2f on %d CPUs", avg.Load1, avg.Load5, avg.Load15, p.numCPU),
		Busy:    avg.Load1 >= float64(p.numCPU),
	}}

	pct, err := p.percent(ctx, p.interval, false)
	if err != nil {
		return samples, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(pct) > 0 {
		samples = append(samples, domain.ActivitySample{
			Source:  ProbeName,
			Subject: "cpu",
			Detail:  fmt.Sprintf("cpu %.1f%% over %s", pct[0], p.interval),
			Busy:    pct[0] >= BusyCPUPercent,
		})
	}
	return samples, nil
}

// Compile-time interface check
var _ domain.ActivityProbe = (*Probe)(nil)
