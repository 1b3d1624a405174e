//go:build !nonvml
// +build !nonvml

package nvml

import (
	"context"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/worldland/rc6check/internal/domain"
)

// NVMLProbe reports NVIDIA GPU utilisation. On hybrid machines a busy
// discrete GPU usually means the integrated one is driving a display too.
type NVMLProbe struct{}

func NewNVMLProbe() *NVMLProbe {
	return &NVMLProbe{}
}

func (p *NVMLProbe) Name() string {
	return ProbeName
}

// Probe initialises NVML, samples every device and shuts NVML down again
func (p *NVMLProbe) Probe(ctx context.Context) ([]domain.ActivitySample, error) {
	ret := nvml.Init()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("NVML init failed: %v", nvml.ErrorString(ret))
	}
	defer nvml.Shutdown()

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to get device count: %v", nvml.ErrorString(ret))
	}

	samples := make([]domain.ActivitySample, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return samples, err
		}

		device, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue // Skip failed device
		}

		uuid, _ := device.GetUUID()
		name, _ := device.GetName()
		util, ret := device.GetUtilizationRates()
		if ret != nvml.SUCCESS {
			continue
		}
		procs, _ := device.GetComputeRunningProcesses()

		samples = append(samples, utilizationSample(uuid, name, util.Gpu, util.Memory, len(procs)))
	}
	return samples, nil
}

// Compile-time interface check
var _ domain.ActivityProbe = (*NVMLProbe)(nil)
