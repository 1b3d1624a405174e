package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/worldland/rc6check/internal/cli"
	"github.com/worldland/rc6check/internal/gueststat"
)

func newGuestStatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guest-stat",
		Short: "Work with SVGA guest statistics descriptors",
	}
	cmd.AddCommand(newGuestStatLayoutCmd(), newGuestStatInspectCmd(), newGuestStatNewCmd())
	return cmd
}

func newGuestStatLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the fixed descriptor layout",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cli.NewPrinter(cmd.OutOrStdout()).PrintLayout()
		},
	}
}

func newGuestStatInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode and validate a descriptor record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return &exitError{code: cli.ExitFailure, err: fmt.Errorf("failed to read descriptor: %w", err)}
			}

			var d gueststat.Descriptor
			if err := d.UnmarshalBinary(data); err != nil {
				return &exitError{code: cli.ExitFailure, err: err}
			}
			cli.NewPrinter(cmd.OutOrStdout()).PrintDescriptor(&d)

			if err := d.Validate(); err != nil {
				// Hosts stop logging stats for layouts they don't know
				if errors.Is(err, gueststat.ErrVersionMismatch) {
					slog.Warn("descriptor layout not understood, stats would be ignored", "error", err)
					return nil
				}
				return &exitError{code: cli.ExitFailure, err: err}
			}
			return nil
		},
	}
}

func newGuestStatNewCmd() *cobra.Command {
	var (
		description string
		out         string
		statVA      uint64
		strsVA      uint64
		statLen     uint64
		infoLen     uint64
		strsLen     uint64
		statPPNs    []string
		infoPPNs    []string
		strsPPNs    []string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Encode a descriptor record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := gueststat.NewDescriptor(description)
			d.StatStartVA = statVA
			d.StrsStartVA = strsVA
			d.StatLength = statLen
			d.InfoLength = infoLen
			d.StrsLength = strsLen

			lists := []struct {
				flag string
				raw  []string
				set  func([]uint64) error
			}{
				{"stat-ppns", statPPNs, d.SetStatPPNs},
				{"info-ppns", infoPPNs, d.SetInfoPPNs},
				{"strs-ppns", strsPPNs, d.SetStrsPPNs},
			}
			for _, l := range lists {
				ppns, err := parsePPNs(l.raw)
				if err != nil {
					return &exitError{code: cli.ExitInvalid, err: fmt.Errorf("--%s: %w", l.flag, err)}
				}
				if err := l.set(ppns); err != nil {
					return &exitError{code: cli.ExitInvalid, err: fmt.Errorf("--%s: %w", l.flag, err)}
				}
			}
			if err := d.Validate(); err != nil {
				return &exitError{code: cli.ExitInvalid, err: err}
			}

			data, err := d.MarshalBinary()
			if err != nil {
				return fmt.Errorf("failed to encode descriptor: %w", err)
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return &exitError{code: cli.ExitFailure, err: fmt.Errorf("failed to write descriptor: %w", err)}
			}
			slog.Info("descriptor written", "path", out, "bytes", len(data))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&description, "description", "", "instance description, truncated to fit")
	f.StringVarP(&out, "out", "o", "", "output file, stdout when empty or -")
	f.Uint64Var(&statVA, "stat-va", 0, "VA of the stats section")
	f.Uint64Var(&strsVA, "strs-va", 0, "VA of the strings section")
	f.Uint64Var(&statLen, "stat-length", 0, "stats section length in bytes")
	f.Uint64Var(&infoLen, "info-length", 0, "info section length in bytes")
	f.Uint64Var(&strsLen, "strs-length", 0, "strings section length in bytes")
	f.StringSliceVar(&statPPNs, "stat-ppns", nil, "stats section page numbers")
	f.StringSliceVar(&infoPPNs, "info-ppns", nil, "info section page numbers")
	f.StringSliceVar(&strsPPNs, "strs-ppns", nil, "strings section page numbers")
	return cmd
}

// parsePPNs accepts decimal, 0x hex or 0o octal page numbers
func parsePPNs(raw []string) ([]uint64, error) {
	ppns := make([]uint64, 0, len(raw))
	for _, s := range raw {
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad page number %q: %w", s, err)
		}
		ppns = append(ppns, v)
	}
	return ppns, nil
}
