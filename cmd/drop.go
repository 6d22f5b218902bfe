package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/storage"
)

var (
	dropForce bool
	dropDemo  string
)

// dropCmd deletes the tactics database together with its WAL sidecar files.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the tactics database",
	Long:  "Permanently delete the SQLite tactics database, or with --demo only one stored demo. Deleted reports are rebuilt by re-parsing or re-importing.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropDemo, "demo", "", "delete only the demo with this hash prefix")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropDemo != "" {
		return dropOneDemo(dropDemo)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	removed, err := removeDatabase(dbPath)
	if err != nil {
		return err
	}
	if removed == 0 {
		fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}

// removeDatabase deletes path and its -wal/-shm files, returning how many
// files existed.
func removeDatabase(path string) (int, error) {
	n := 0
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		err := os.Remove(p)
		switch {
		case err == nil:
			n++
		case errors.Is(err, fs.ErrNotExist):
		default:
			return n, fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return n, nil
}

func dropOneDemo(prefix string) error {
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
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will delete demo %s (%d rounds).\n", demo.Hash[:12], demo.Rounds)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if _, err := db.DeleteDemo(demo.Hash); err != nil {
		return fmt.Errorf("delete demo: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted demo: %s\n", demo.Hash[:12])
	return nil
}
