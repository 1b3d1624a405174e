package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/worldland/rc6check/internal/cli"
)

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool
	opts := &checkOptions{}

	root := &cobra.Command{
		Use:   "rc6check",
		Short: "Verify that an idle Intel GPU accrues RC6 residency",
		Long: `rc6check samples the RC6, RC6p and RC6pp residency counters of a DRM card, ` +
			`sleeps, samples again and checks that the summed residency matches the sleep ` +
			`within a tolerance. Exit status: 0 pass, 77 skip, 99 fail, 79 invalid usage.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	addCheckFlags(root, opts)

	root.AddCommand(newCheckCmd(), newDevicesCmd(), newGuestStatCmd())
	return root
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return cli.ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil && ee.code != cli.ExitSuccess {
			fmt.Fprintf(stderr, "%s\n", ee.err)
		}
		return ee.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return cli.ExitInvalid
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
