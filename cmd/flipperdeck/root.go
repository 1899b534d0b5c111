package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flipperdeck/internal/domain/ports"
	"flipperdeck/internal/infrastructure/config"
	"flipperdeck/internal/infrastructure/logger"
)

// globalOptions значения общих флагов
type globalOptions struct {
	cfgFile  string
	port     string
	baud     int
	logLevel string

	cfg *config.Config
}

// NewRootCmd создает корневую команду со всеми подкомандами.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "flipperdeck",
		Short:         "Control deck for a Flipper Zero on a serial port",
		Long:          `Flipper Deck connects to a Flipper Zero over its USB serial port, streams device output, sends canned commands and browses the script catalog.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.config/flipperdeck/config.yaml)")
	flags.StringVarP(&opts.port, "port", "p", "", "serial port (default is the first port found)")
	flags.IntVarP(&opts.baud, "baud", "b", config.DefaultBaudRate, "baud rate")
	flags.StringVar(&opts.logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")

	rootCmd.AddCommand(newTUICmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newPortsCmd(opts))
	rootCmd.AddCommand(newScriptsCmd(opts))
	rootCmd.AddCommand(newSendCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig читает файл конфигурации и применяет флаги поверх него.
func (o *globalOptions) loadConfig(cmd *cobra.Command) error {
	path := o.cfgFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = o.port
	}
	if flags.Changed("baud") {
		cfg.Serial.BaudRate = o.baud
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// newLogger создает диагностический логгер. toFile направляет вывод в файл
// из конфигурации (нужно для TUI, чтобы не портить экран).
func (o *globalOptions) newLogger(toFile bool) (ports.Logger, func(), error) {
	if !toFile || o.cfg.Log.File == "" {
		log, err := logger.New(logger.Options{Level: o.cfg.Log.Level})
		return log, func() {}, err
	}

	f, err := os.OpenFile(o.cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log, err := logger.New(logger.Options{Level: o.cfg.Log.Level, Output: f})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return log, func() { f.Close() }, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// Конфигурация не нужна
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flipperdeck %s\n", version)
		},
	}
}
