package environment

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/host"
	"github.com/worldland/rc6check/internal/domain"
)

// SimulationEnv is the variable the igt harness uses to flag simulated runs
const SimulationEnv = "INTEL_SIMULATION"

// Host answers environment questions for the residency checker
type Host struct {
	getenv         func(string) string
	virtualization func(ctx context.Context) (system, role string, err error)
	osRelease      string
}

// NewHost creates a Host backed by the process environment and gopsutil
func NewHost() *Host {
	return &Host{
		getenv:         os.Getenv,
		virtualization: host.VirtualizationWithContext,
		osRelease:      "/etc/os-release",
	}
}

// Simulated reports whether the check runs under a simulator
func (h *Host) Simulated() bool {
	return h.getenv(SimulationEnv) == "1"
}

// Virtualized reports whether the host is a virtual machine guest
func (h *Host) Virtualized(ctx context.Context) (bool, error) {
	_, role, err := h.virtualization(ctx)
	if err != nil {
		return false, err
	}
	return role == "guest", nil
}

// PreflightResult summarises the execution environment for the report header
type PreflightResult struct {
	OSId           string `json:"os_id"`      // "ubuntu", "debian", etc.
	OSVersion      string `json:"os_version"` // "22.04", "12", etc.
	Simulated      bool   `json:"simulated"`
	Virtualization string `json:"virtualization,omitempty"` // "kvm", "xen", ...
	Role           string `json:"role,omitempty"`           // "guest" or "host"
}

// RunPreflight collects environment facts. Virtualisation lookup failures
// leave the fields empty.
func (h *Host) RunPreflight(ctx context.Context) *PreflightResult {
	result := &PreflightResult{Simulated: h.Simulated()}
	result.OSId, result.OSVersion = detectOS(h.osRelease)

	if system, role, err := h.virtualization(ctx); err == nil {
		result.Virtualization = system
		result.Role = role
	}
	return result
}

func detectOS(path string) (id, version string) {
	f, err := os.Open(path)
	if err != nil {
		return "unknown", ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ID=") {
			id = strings.Trim(strings.TrimPrefix(line, "ID="), "\"")
		}
		if strings.HasPrefix(line, "VERSION_ID=") {
			version = strings.Trim(strings.TrimPrefix(line, "VERSION_ID="), "\"")
		}
	}
	return id, version
}

// Compile-time interface check
var _ domain.Environment = (*Host)(nil)
