package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TelioTortay/ATEMLogger/internal/config"
	"github.com/TelioTortay/ATEMLogger/internal/logging"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var logLevelFlag string

var rootCmd = &cobra.Command{
	Use:   "atemlogger",
	Short: "Log ATEM program cuts against HyperDeck timecode and export an EDL",
	Long: `atemlogger watches a Blackmagic ATEM switcher's program bus and a
HyperDeck recorder. Every program cut is stamped with the deck's display
timecode, and the resulting take list is written as a CMX3600 EDL when the
session stops.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup must work before any config exists.
		if cmd.Name() == "setup" {
			return nil
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return err
		}
		project, err := config.LoadProject()
		if err != nil {
			return err
		}
		cfg = config.Merge(global, project)

		level := cfg.LogLevel
		if logLevelFlag != "" {
			level = logLevelFlag
		}
		logging.Setup(level, os.Stderr)
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error)")
}
