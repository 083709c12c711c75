package main

import (
	"commute-service/internal/config"
	"commute-service/internal/platform/obs"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "commutectl",
	Short:        "Commute service maintenance tool",
	Long:         "Manages the bus schedule store and computes commute plans from the command line.",
	SilenceUsage: true,
}

var providerOverride string

func init() {
	rootCmd.PersistentFlags().StringVar(&providerOverride, "provider", "", "Directions provider (google|mock), overrides DIRECTIONS_PROVIDER")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedScheduleCmd)
	rootCmd.AddCommand(refreshScheduleCmd)
	rootCmd.AddCommand(planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the same environment as the server, with flag overrides.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	if providerOverride != "" {
		if err := os.Setenv("DIRECTIONS_PROVIDER", providerOverride); err != nil {
			return nil, zerolog.Nop(), err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	return cfg, obs.NewLogger(cfg.Env, cfg.LogLevel), nil
}
