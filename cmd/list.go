package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored demos",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	demos, err := db.ListDemos()
	if err != nil {
		return fmt.Errorf("list demos: %w", err)
	}
	if len(demos) == 0 {
		fmt.Fprintln(os.Stdout, "No demos stored yet. Run 'cstactics parse <demo.dem>' or 'cstactics import <file.csv>' to add one.")
		return nil
	}
	printDemoList(demos)
	return nil
}

func printDemoList(demos []model.DemoSummary) {
	fmt.Fprintf(os.Stdout, "%-14s  %-12s  %-6s  %-20s  %6s  %s\n",
		"HASH", "MAP", "SOURCE", "IMPORTED", "ROUNDS", "TICK")
	fmt.Fprintf(os.Stdout, "%-14s  %-12s  %-6s  %-20s  %6s  %s\n",
		"--------------", "------------", "------", "--------------------", "------", "----")
	for _, d := range demos {
		mapName := d.MapName
		if mapName == "" {
			mapName = "-"
		}
		fmt.Fprintf(os.Stdout, "%-14s  %-12s  %-6s  %-20s  %6d  %.0f\n",
			d.Hash[:min(12, len(d.Hash))], mapName, d.Source, d.ImportedAt, d.Rounds, d.TickRate)
	}
}
