package container

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/worldland/rc6check/internal/domain"
)

const ProbeName = "docker"

// DockerClient interface for Docker operations (mockable)
type DockerClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	Close() error
}

// Compile-time interface check
var _ DockerClient = (*client.Client)(nil)

// GPUContainerProbe finds running containers that can reach a GPU
type GPUContainerProbe struct {
	cli         DockerClient
	pingTimeout time.Duration
}

// NewGPUContainerProbe creates a probe talking to the Docker daemon from the environment
func NewGPUContainerProbe() (*GPUContainerProbe, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return NewGPUContainerProbeWithClient(cli), nil
}

// NewGPUContainerProbeWithClient creates a probe with a provided client (for testing)
func NewGPUContainerProbeWithClient(cli DockerClient) *GPUContainerProbe {
	return &GPUContainerProbe{cli: cli, pingTimeout: 3 * time.Second}
}

func (p *GPUContainerProbe) Name() string {
	return ProbeName
}

// ping waits for the daemon with exponential backoff
func (p *GPUContainerProbe) ping(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = p.pingTimeout

	operation := func() error {
		_, err := p.cli.Ping(ctx)
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

// Probe lists running containers and reports those with GPU access
func (p *GPUContainerProbe) Probe(ctx context.Context) ([]domain.ActivitySample, error) {
	if err := p.ping(ctx); err != nil {
		return nil, err
	}

	list, err := p.cli.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("status", "running")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	samples := []domain.ActivitySample{{
		Source:  ProbeName,
		Subject: "containers",
		Detail:  fmt.Sprintf("%d running", len(list)),
	}}

	for _, c := range list {
		inspect, err := p.cli.ContainerInspect(ctx, c.ID)
		if err != nil {
			slog.Warn("failed to inspect container", "container", c.ID, "error", err)
			continue
		}

		access := gpuAccess(inspect)
		if len(access) == 0 {
			continue
		}

		detail := fmt.Sprintf("image %s, %s", c.Image, strings.Join(access, ", "))
		if ports := publishedPorts(inspect); ports != "" {
			detail += ", ports " + ports
		}
		samples = append(samples, domain.ActivitySample{
			Source:  ProbeName,
			Subject: containerName(c),
			Detail:  detail,
			Busy:    true,
		})
	}
	return samples, nil
}

// gpuAccess lists the ways a container can reach a GPU
func gpuAccess(inspect types.ContainerJSON) []string {
	if inspect.ContainerJSONBase == nil || inspect.HostConfig == nil {
		return nil
	}
	hc := inspect.HostConfig

	var access []string
	if hc.Privileged {
		access = append(access, "privileged")
	}
	if hc.Runtime == "nvidia" {
		access = append(access, "nvidia runtime")
	}
	for _, d := range hc.Devices {
		if strings.HasPrefix(d.PathOnHost, "/dev/dri") || strings.HasPrefix(d.PathOnHost, "/dev/nvidia") {
			access = append(access, "device "+d.PathOnHost)
		}
	}
	if len(hc.DeviceRequests) > 0 {
		access = append(access, fmt.Sprintf("%d device requests", len(hc.DeviceRequests)))
	}
	return access
}

// publishedPorts formats bound ports like "8080/tcp,9090/udp"
func publishedPorts(inspect types.ContainerJSON) string {
	if inspect.NetworkSettings == nil || len(inspect.NetworkSettings.Ports) == 0 {
		return ""
	}

	ports := make([]nat.Port, 0, len(inspect.NetworkSettings.Ports))
	for port, bindings := range inspect.NetworkSettings.Ports {
		if len(bindings) > 0 {
			ports = append(ports, port)
		}
	}
	sort.Slice(ports, func(i, j int) bool {
		if ports[i].Int() != ports[j].Int() {
			return ports[i].Int() < ports[j].Int()
		}
		return ports[i].Proto() < ports[j].Proto()
	})

	parts := make([]string, len(ports))
	for i, port := range ports {
		parts[i] = port.Port() + "/" + port.Proto()
	}
	return strings.Join(parts, ",")
}

func containerName(c types.Container) string {
	if len(c.Names) > 0 {
		return strings.TrimPrefix(c.Names[0], "/")
	}
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

// Close closes the Docker client connection
func (p *GPUContainerProbe) Close() error {
	if p.cli != nil {
		return p.cli.Close()
	}
	return nil
}

// Compile-time interface check
var _ domain.ActivityProbe = (*GPUContainerProbe)(nil)
