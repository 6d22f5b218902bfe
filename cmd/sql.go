package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-tactics/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the tactics database",
	Long: `Run an arbitrary SQL query against the tactics database and print results as a table.

Schema overview:
  demos(hash, source, map_name, imported_at, tickrate, rounds)
  round_zones(demo_hash, round_number, seq, label, min_x, min_y, max_x, max_y,
    centroid_x, centroid_y, samples, spawn)
  player_movement(demo_hash, round_number, player_id TEXT, name, side,
    total_distance, average_speed, peak_speed, rotation_count,
    position_consistency, rotation_efficiency, map_coverage, teammate_distance, roles)
  zone_presence(demo_hash, round_number, player_id TEXT, zone, presence)
  team_tactics(demo_hash, round_number, side, players, cohesion, average_distance,
    trade_efficiency, movement_coordination, rotation_synchrony, execution_score, setup_score)
  team_zone_control(demo_hash, round_number, side, zone, map_control, power_control)
  round_outcomes(demo_hash, round_number, probability_a, probability_b)
  round_factors(demo_hash, round_number, rank, name, adjustment, statement)
  utility_impacts(demo_hash, round_number, seq, thrower_id, side, kind, tick,
    x, y, z, zone, affected, effectiveness)

Note: player_id is stored as TEXT. Use quotes: WHERE player_id = '76561198031906602'
Sides are stored as 'A' (attack, T) and 'B' (defence, CT).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	printQueryTable(cols, rows)
	return nil
}

func printQueryTable(cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
}
