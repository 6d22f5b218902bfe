package cmd

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/telemetry"
)

var (
	importMap   string
	importForce bool
)

var importCmd = &cobra.Command{
	Use:   "import <telemetry.csv>",
	Short: "Analyse telemetry samples from a CSV file and store the reports",
	Long: `Load per-tick player samples from CSV, analyse every round and store the reports.

Required columns: tick, player_id, side, round, x, y, z, health.
Optional columns: player_name, vx, vy, vz, flash_duration, utility_kind,
utility_x, utility_y, utility_z. Side accepts A/B or T/CT.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importMap, "map", "", "map name label for the stored record")
	importCmd.Flags().BoolVar(&importForce, "force", false, "re-analyse a file that is already stored")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read telemetry: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(data))

	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	if !importForce {
		exists, err := db.DemoExists(hash)
		if err != nil {
			return fmt.Errorf("check demo: %w", err)
		}
		if exists {
			fmt.Fprintf(os.Stdout, "Telemetry %s already stored, showing cached results.\n", hash[:12])
			return showByHash(db, hash, 0)
		}
	}

	fmt.Fprintf(os.Stdout, "Reading %s...\n", filepath.Base(path))
	samples, err := telemetry.Read(bytes.NewReader(data))
	if err != nil {
		return err
	}

	summary := model.DemoSummary{
		Hash:    hash,
		Source:  "csv",
		MapName: importMap,
	}
	return analyzeAndStore(cmd.Context(), db, summary, samples)
}
