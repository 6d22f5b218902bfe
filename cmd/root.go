package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/config"
)

var (
	dbPath     string
	configPath string
	tickRate   float64
	zoneCount  int
	workers    int
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "cstactics",
	Short: "CS2 positional analytics tool",
	Long:  "Turn CS2 demos or telemetry CSV into per-round zone, movement, role, team and win-probability analytics.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".cstactics", "tactics.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file overriding the default tunables")
	rootCmd.PersistentFlags().Float64Var(&tickRate, "tick-rate", 0, "override the tick rate used for speeds (0 keeps config/demo value)")
	rootCmd.PersistentFlags().IntVar(&zoneCount, "zones", 0, "override the target number of generated zones")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", runtime.NumCPU(), "rounds analysed in parallel")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(roundsCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// loadConfig applies --config, then the flag overrides. sourceTickRate is
// the demo's own tick rate and wins over the config file but not over
// --tick-rate; pass 0 when unknown.
func loadConfig(sourceTickRate float64) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	if sourceTickRate > 0 {
		cfg.TickRate = sourceTickRate
	}
	if tickRate > 0 {
		cfg.TickRate = tickRate
	}
	if zoneCount > 0 {
		cfg.Zones.TargetCount = zoneCount
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
