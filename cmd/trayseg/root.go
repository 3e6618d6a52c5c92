package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/swdee/go-trayseg/config"
)

// app holds the state shared by the sub commands
type app struct {
	configFile string
	envFile    string
	settings   *config.Settings
	log        *slog.Logger
}

// rootCommand creates and returns the root command
func rootCommand() *cobra.Command {

	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "trayseg",
		Short:         "Tray plant segmentation and spray signalling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "",
		"Config file, defaults to ./trayseg.yaml if present")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env", "",
		"Env file, defaults to ./.env if present")

	rootCmd.AddCommand(
		processCommand(a),
		runCommand(a),
		serveCommand(a),
	)

	return rootCmd
}

// initialize loads the settings and sets up logging
func (a *app) initialize() error {

	settings, err := config.Load(a.configFile, a.envFile)

	if err != nil {
		return err
	}

	log, err := config.NewLogger(settings.Log, os.Stderr)

	if err != nil {
		return err
	}

	slog.SetDefault(log)

	a.settings = settings
	a.log = log

	return nil
}
