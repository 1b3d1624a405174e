package main

import (
	"github.com/spf13/cobra"
	"github.com/worldland/rc6check/internal/cli"
	"github.com/worldland/rc6check/internal/sysfs"
)

func newDevicesCmd() *cobra.Command {
	var (
		sysRoot string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List DRM cards and the residency attributes they expose",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cards, err := sysfs.ListCards(sysRoot)
			if err != nil {
				return &exitError{code: cli.ExitFailure, err: err}
			}

			printer := cli.NewPrinter(cmd.OutOrStdout())
			if asJSON {
				return printer.PrintJSON(cards)
			}
			printer.PrintCards(cards)
			return nil
		},
	}

	cmd.Flags().StringVar(&sysRoot, "sysfs-root", sysfs.DefaultRoot, "DRM sysfs class directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print cards as JSON")
	return cmd
}
