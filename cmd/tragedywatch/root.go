package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"TragedyWatch/internal/app"
	"TragedyWatch/internal/config"
	"TragedyWatch/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
}

var rootCmd = &cobra.Command{
	Use:   "tragedywatch",
	Short: "Detect tragedy headlines and broadcast push alerts",
	Long: "TragedyWatch polls a news API with RSS fallbacks, keeps every headline\n" +
		"that reads like a tragedy and pushes one alert per newly stored article.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "YAML config file (overrides TRAGEDYWATCH_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(notifyTestCmd)
	rootCmd.Version = version
}

// loadApplication reads configuration and wires the application for cmd.
func loadApplication(cmd *cobra.Command) (*app.Application, *slog.Logger, error) {
	if rootFlags.configPath != "" {
		if err := os.Setenv("TRAGEDYWATCH_CONFIG", rootFlags.configPath); err != nil {
			return nil, nil, fmt.Errorf("set config path: %w", err)
		}
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}
