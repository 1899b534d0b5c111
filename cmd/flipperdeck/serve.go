package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"flipperdeck/internal/app"
	"flipperdeck/internal/ui/web"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the deck over HTTP",
		Long:  `Serve the control page and its JSON API. The page polls device state and the activity log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				opts.cfg.Web.Addr = addr
			}

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

			srv := web.NewServer(a.Controller, a.Activity, a.Lister, log.WithField("component", "web"), web.Options{
				RequestLogging: opts.cfg.Web.RequestLogging,
				BodyLimit:      opts.cfg.Web.BodyLimit,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(opts.cfg.Web.Addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("Остановка сервера...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, 127.0.0.1:8642)")
	return cmd
}
