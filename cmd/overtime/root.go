package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/internal/logging"
	"github.com/warp/overtime-engine/overtime"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	registry *overtime.Registry
	logger   *slog.Logger
}

var (
	schedulesPath string
	logLevel      string
	logFormat     string

	cli app
)

var rootCmd = &cobra.Command{
	Use:   "overtime",
	Short: "Classify DBR timesheets into normal, overtime and absence hours",
	Long: `overtime reads Danish time-registration exports (semicolon CSV, UTF-8 or
Windows-1252), classifies every worker-day under the DBR collective agreement
and prints daily and weekly records.

Rate schedules default to the built-in DBR editions; --schedules loads a
YAML or JSON schedule file instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.New(logging.Config{Level: logLevel, Format: logFormat, Output: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		registry, err := factory.LoadRegistry(schedulesPath)
		if err != nil {
			return fmt.Errorf("failed to load rate schedules: %w", err)
		}
		cli = app{registry: registry, logger: logger}
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&schedulesPath, "schedules", "", "Rate schedule file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(schedulesCmd)
}
