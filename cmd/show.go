package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/storage"
)

var (
	showPlayerID string
	showRound    int
)

var showCmd = &cobra.Command{
	Use:   "show <hash-prefix>",
	Short: "Show stored round reports by hash prefix",
	Long:  "Without --round, print one overview line per round. With --round, print that round's zones, players, teams, utility and win estimate.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVar(&showRound, "round", 0, "print one round in full")
	showCmd.Flags().StringVar(&showPlayerID, "player", "", "highlight player ID")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	demo, err := db.GetDemoByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query demo: %w", err)
	}
	if demo == nil {
		fmt.Fprintf(os.Stderr, "No demo found with hash prefix %q\n", prefix)
		return nil
	}
	return showByHash(db, demo.Hash, showRound)
}
