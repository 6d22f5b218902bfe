package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/report"
	"github.com/pable/go-cs-tactics/internal/storage"
)

var (
	roundsSide string
	roundsRole string
)

// roundsCmd is the cobra command for per-round drill-down for one player in one demo.
var roundsCmd = &cobra.Command{
	Use:   "rounds <hash-prefix> <player-id>",
	Short: "Per-round drill-down for one player in one demo",
	Args:  cobra.ExactArgs(2),
	RunE:  runRounds,
}

func init() {
	roundsCmd.Flags().StringVar(&roundsSide, "side", "", "filter by side: A/B or T/CT")
	roundsCmd.Flags().StringVar(&roundsRole, "role", "", "filter by role signal: holder, entry, support, lurker")
}

// filterRounds keeps the reports in which the player matches --side and --role.
func filterRounds(reports []*model.RoundReport, playerID, side, role string) ([]*model.RoundReport, error) {
	var want model.Side
	if side != "" {
		s, err := model.ParseSide(side)
		if err != nil {
			return nil, err
		}
		want = s
	}
	role = strings.ToLower(role)

	var out []*model.RoundReport
	for _, r := range reports {
		for _, p := range r.Players {
			if p.Movement.PlayerID != playerID {
				continue
			}
			if want != model.SideNone && p.Movement.Side != want {
				break
			}
			if role != "" && !p.Roles.Has(model.RoleKind(role)) {
				break
			}
			out = append(out, r)
			break
		}
	}
	return out, nil
}

// runRounds loads every stored round of a demo and prints the player's drill-down table.
func runRounds(cmd *cobra.Command, args []string) error {
	prefix, playerID := args[0], args[1]

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

	reports, err := db.GetRoundReports(demo.Hash, 0)
	if err != nil {
		return fmt.Errorf("get round reports: %w", err)
	}
	reports, err = filterRounds(reports, playerID, roundsSide, roundsRole)
	if err != nil {
		return err
	}

	report.PrintDemoSummary(os.Stdout, *demo)
	if report.PrintPlayerRounds(os.Stdout, reports, playerID) == 0 {
		fmt.Fprintf(os.Stderr, "No rounds found for player %s in demo %s\n", playerID, prefix)
	}
	return nil
}
