//go:build nonvml
// +build nonvml

package nvml

import (
	"context"
	"fmt"

	"github.com/worldland/rc6check/internal/domain"
)

// NVMLProbe stub - used when building without NVIDIA libraries
type NVMLProbe struct{}

func NewNVMLProbe() *NVMLProbe {
	return &NVMLProbe{}
}

func (p *NVMLProbe) Name() string {
	return ProbeName
}

func (p *NVMLProbe) Probe(ctx context.Context) ([]domain.ActivitySample, error) {
	return nil, fmt.Errorf("NVML not available (built with nonvml tag)")
}

// Compile-time interface check
var _ domain.ActivityProbe = (*NVMLProbe)(nil)
