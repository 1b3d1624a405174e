package hostload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/load"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProbe(avg *load.AvgStat, avgErr error, pct []float64, pctErr error) *Probe {
	return &Probe{
		interval: 100 * time.Millisecond,
		numCPU:   4,
		loadAvg:  func(ctx context.Context) (*load.AvgStat, error) { return avg, avgErr },
		percent: func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error) {
			return pct, pctErr
		},
	}
}

func TestProbe_IdleHost(t *testing.T) {
	p := fakeProbe(&load.AvgStat{Load1: 0.1, Load5: 0.2, Load15: 0.3}, nil, []float64{3.5}, nil)

	samples, err := p.Probe(context.Background())

	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.False(t, samples[0].Busy)
	assert.Equal(t, "load average 0.10 0.20 0.30 on 4 CPUs", samples[0].Detail)
	assert.False(t, samples[1].Busy)
	assert.Equal(t, "cpu 3.5% over 100ms", samples[1].Detail)
}

func TestProbe_BusyHost(t *testing.T) {
	p := fakeProbe(&load.AvgStat{Load1: 6}, nil, []float64{88}, nil)

	samples, err := p.Probe(context.Background())

	require.NoError(t, err)
	assert.True(t, samples[0].Busy)
	assert.True(t, samples[1].Busy)
}

func TestProbe_LoadError(t *testing.T) {
	p := fakeProbe(nil, errors.New("no /proc/loadavg"), nil, nil)

	_, err := p.Probe(context.Background())

	assert.ErrorContains(t, err, "load average")
}

func TestProbe_CPUErrorKeepsLoadSample(t *testing.T) {
	p := fakeProbe(&load.AvgStat{Load1: 1}, nil, nil, errors.New("no /proc/stat"))

	samples, err := p.Probe(context.Background())

	assert.Error(t, err)
	assert.Len(t, samples, 1)
}
