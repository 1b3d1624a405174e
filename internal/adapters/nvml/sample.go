package nvml

import (
	"fmt"

	"github.com/worldland/rc6check/internal/domain"
)

// ProbeName identifies NVML samples in reports
const ProbeName = "nvml"

func utilizationSample(uuid, name string, gpuUtil, memUtil uint32, processes int) domain.ActivitySample {
	return domain.ActivitySample{
		Source:  ProbeName,
		Subject: uuid,
		Detail:  fmt.Sprintf("%s: gpu %d%%, memory %d%%, %d compute processes", name, gpuUtil, memUtil, processes),
		Busy:    gpuUtil > 0 || processes > 0,
	}
}
