package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flipperdeck/internal/infrastructure/serialport"
)

func newPortsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := serialport.SystemLister{}.ListPorts()
			if err != nil {
				return fmt.Errorf("failed to list serial ports: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No serial ports found.")
				return nil
			}
			for _, name := range list {
				marker := " "
				if name == opts.cfg.Serial.Port {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, name)
			}
			return nil
		},
	}
}
