package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flipperdeck/internal/app"
	"flipperdeck/internal/service/activity"
)

// logPrinter печатает новые записи журнала активности
type logPrinter struct {
	out  io.Writer
	log  *activity.Log
	last uint64
}

func (p *logPrinter) flush() {
	for _, e := range p.log.Since(p.last) {
		fmt.Fprintln(p.out, e.String())
		p.last = e.Seq
	}
}

func newSendCmd(opts *globalOptions) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "send <command...>",
		Short: "Send one command to the device and print its output",
		Long:  `Connect, send the command followed by a newline, print device output for --wait, then disconnect.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := opts.newLogger(false)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := app.New(opts.cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			printer := &logPrinter{out: cmd.OutOrStdout(), log: a.Activity}
			sub := a.Activity.Subscribe()
			defer a.Activity.Unsubscribe(sub)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if err := a.Manager.Connect(ctx); err != nil {
				printer.flush()
				return err
			}
			if err := a.Manager.Send(ctx, strings.Join(args, " ")); err != nil {
				a.Close()
				printer.flush()
				return err
			}

			timer := time.NewTimer(wait)
			defer timer.Stop()
		loop:
			for {
				select {
				case <-sub:
					printer.flush()
				case <-timer.C:
					break loop
				case <-ctx.Done():
					break loop
				}
			}

			a.Close()
			printer.flush()
			return nil
		},
	}

	cmd.Flags().DurationVarP(&wait, "wait", "w", 2*time.Second, "how long to collect device output")
	return cmd
}
