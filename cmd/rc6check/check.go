package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/worldland/rc6check/internal/adapters/hostload"
	"github.com/worldland/rc6check/internal/adapters/nvml"
	"github.com/worldland/rc6check/internal/cli"
	"github.com/worldland/rc6check/internal/container"
	"github.com/worldland/rc6check/internal/domain"
	"github.com/worldland/rc6check/internal/drm"
	"github.com/worldland/rc6check/internal/environment"
	"github.com/worldland/rc6check/internal/residency"
	"github.com/worldland/rc6check/internal/sysfs"
)

type checkOptions struct {
	config  residency.Config
	sysRoot string
	devRoot string
	probes  string
	json    bool
}

func addCheckFlags(cmd *cobra.Command, opts *checkOptions) {
	opts.config = residency.DefaultConfig()

	f := cmd.Flags()
	f.IntVar(&opts.config.Card, "card", opts.config.Card, "DRM card index, -1 picks the first Intel card")
	f.DurationVar(&opts.config.SettleDelay, "settle", opts.config.SettleDelay, "grace period before reading rc6_enable")
	f.DurationVar(&opts.config.Duration, "duration", opts.config.Duration, "measurement sleep between the two samples")
	f.DurationVar(&opts.config.Fudge, "fudge", opts.config.Fudge, "accepted deviation from the measurement sleep")
	f.BoolVar(&opts.config.SkipVirtualized, "skip-virtualized", opts.config.SkipVirtualized, "skip when running as a VM guest")
	f.StringVar(&opts.sysRoot, "sysfs-root", sysfs.DefaultRoot, "DRM sysfs class directory")
	f.StringVar(&opts.devRoot, "dev-root", drm.DefaultDevRoot, "DRM device node directory")
	f.StringVar(&opts.probes, "probes", hostload.ProbeName, "activity probes run when the GPU is not idle (host,nvml,docker; empty for none)")
	f.BoolVar(&opts.json, "json", false, "print the report as JSON")
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the RC6 residency check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}
	addCheckFlags(cmd, opts)
	return cmd
}

// checkOutput is the JSON document printed with --json
type checkOutput struct {
	Environment *environment.PreflightResult `json:"environment"`
	Report      *residency.Report            `json:"report"`
}

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	if err := opts.config.Validate(); err != nil {
		return &exitError{code: cli.ExitInvalid, err: err}
	}

	probes, closers, err := buildProbes(opts.probes)
	if err != nil {
		return &exitError{code: cli.ExitInvalid, err: err}
	}
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	ctx := cmd.Context()
	host := environment.NewHost()
	checker := residency.NewChecker(
		opts.config,
		drm.NewLocator(opts.sysRoot, opts.devRoot),
		sysfs.NewSource(opts.sysRoot),
		host,
		nil,
		probes...,
	)

	report, runErr := checker.Run(ctx)

	printer := cli.NewPrinter(cmd.OutOrStdout())
	preflight := host.RunPreflight(ctx)
	if opts.json {
		if err := printer.PrintJSON(checkOutput{Environment: preflight, Report: report}); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		printer.PrintEnvironment(preflight)
		printer.PrintReport(report)
	}

	return &exitError{code: cli.ExitCode(report.Outcome), err: runErr}
}

// buildProbes turns a comma separated probe list into probes plus their cleanup funcs
func buildProbes(list string) ([]domain.ActivityProbe, []func() error, error) {
	var probes []domain.ActivityProbe
	var closers []func() error

	for _, name := range strings.Split(list, ",") {
		switch strings.TrimSpace(name) {
		case "":
		case hostload.ProbeName:
			probes = append(probes, hostload.NewProbe(500*time.Millisecond))
		case nvml.ProbeName:
			probes = append(probes, nvml.NewNVMLProbe())
		case container.ProbeName:
			p, err := container.NewGPUContainerProbe()
			if err != nil {
				slog.Warn("docker probe unavailable", "error", err)
				continue
			}
			probes = append(probes, p)
			closers = append(closers, p.Close)
		default:
			return nil, closers, fmt.Errorf("unknown probe %q", name)
		}
	}
	return probes, closers, nil
}
