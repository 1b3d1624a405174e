package nvml

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProbe_ReportsBusyGPUs(t *testing.T) {
	p := NewMockNVMLProbe([]MockGPU{
		{UUID: "GPU-idle", Name: "RTX 4090"},
		{UUID: "GPU-busy", Name: "RTX 4090", GPUUtil: 37, MemoryUtil: 12},
		{UUID: "GPU-proc", Name: "A100", Processes: 1},
	})

	samples, err := p.Probe(context.Background())

	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.False(t, samples[0].Busy)
	assert.True(t, samples[1].Busy)
	assert.True(t, samples[2].Busy)
	assert.Equal(t, "nvml", samples[1].Source)
	assert.Equal(t, "GPU-busy", samples[1].Subject)
	assert.Equal(t, "RTX 4090: gpu 37%, memory 12%, 0 compute processes", samples[1].Detail)
}

func TestMockProbe_Error(t *testing.T) {
	p := NewMockNVMLProbe(nil)
	p.ProbeErr = errors.New("NVML init failed")

	_, err := p.Probe(context.Background())

	assert.EqualError(t, err, "NVML init failed")
}

func TestProbeName(t *testing.T) {
	assert.Equal(t, ProbeName, NewNVMLProbe().Name())
	assert.Equal(t, ProbeName, NewMockNVMLProbe(nil).Name())
}
