package nvml

import (
	"context"

	"github.com/worldland/rc6check/internal/domain"
)

// MockGPU is one fake NVIDIA device
type MockGPU struct {
	UUID       string
	Name       string
	GPUUtil    uint32
	MemoryUtil uint32
	Processes  int
}

// MockNVMLProbe provides fake GPU activity for testing and for hosts without NVML
type MockNVMLProbe struct {
	GPUs     []MockGPU
	ProbeErr error
}

func NewMockNVMLProbe(gpus []MockGPU) *MockNVMLProbe {
	return &MockNVMLProbe{GPUs: gpus}
}

func (p *MockNVMLProbe) Name() string {
	return ProbeName
}

func (p *MockNVMLProbe) Probe(ctx context.Context) ([]domain.ActivitySample, error) {
	if p.ProbeErr != nil {
		return nil, p.ProbeErr
	}
	samples := make([]domain.ActivitySample, 0, len(p.GPUs))
	for _, g := range p.GPUs {
		samples = append(samples, utilizationSample(g.UUID, g.Name, g.GPUUtil, g.MemoryUtil, g.Processes))
	}
	return samples, nil
}

// Compile-time interface check
var _ domain.ActivityProbe = (*MockNVMLProbe)(nil)
