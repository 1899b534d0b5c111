package main

import (
	"github.com/spf13/cobra"

	"flipperdeck/internal/app"
	"flipperdeck/internal/ui/tui"
)

func newTUICmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal user interface",
		Long:  `Start the interactive terminal deck: connection status, telemetry, command keys, script catalog and activity log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := opts.newLogger(true)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := app.New(opts.cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Info("Запуск TUI")
			return tui.Run(a.Controller, a.Activity)
		},
	}
}
