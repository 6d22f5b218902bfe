package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/tactics"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func pct(v float64) string { return fmt.Sprintf("%.0f%%", v*100) }

// PrintDemoSummary prints a one-line summary header for the demo.
func PrintDemoSummary(w io.Writer, s model.DemoSummary) {
	mapName := s.MapName
	if mapName == "" {
		mapName = "-"
	}
	fmt.Fprintf(w, "\nMap: %s  |  Source: %s  |  Rounds: %d  |  Tick: %.0f  |  Hash: %s\n\n",
		mapName, s.Source, s.Rounds, s.TickRate, shortHash(s.Hash))
}

// PrintRoundsTable prints one line per round with the win estimate and its
// strongest factor.
func PrintRoundsTable(w io.Writer, reports []*model.RoundReport) {
	table := newTable(w)
	table.Header("ROUND", "ZONES", "PLAYERS", "UTIL", "A_WIN", "B_WIN", "TOP_FACTOR")

	for _, r := range reports {
		top := "-"
		if len(r.Outcome.Factors) > 0 {
			top = r.Outcome.Factors[0].Statement
		}
		table.Append(
			strconv.Itoa(r.RoundNumber),
			strconv.Itoa(len(r.Zones)),
			strconv.Itoa(len(r.Players)),
			strconv.Itoa(len(r.Utility)),
			pct(r.Outcome.ProbabilityA),
			pct(r.Outcome.ProbabilityB),
			top,
		)
	}
	table.Render()
}

// PrintZoneTable prints the generated zone catalog of one round.
// SAMPLE flags zones built from few samples.
func PrintZoneTable(w io.Writer, zones []model.MapZone) {
	table := newTable(w)
	table.Header("ZONE", "SPAWN", "SAMPLES", "SAMPLE", "CENTROID", "X_RANGE", "Y_RANGE")

	for _, z := range zones {
		spawn := "-"
		if z.Spawn != model.SideNone {
			spawn = z.Spawn.String()
		}
		table.Append(
			z.Label,
			spawn,
			strconv.Itoa(z.Samples),
			sampleFlag(z.Samples),
			fmt.Sprintf("%.0f,%.0f", z.Centroid.X, z.Centroid.Y),
			fmt.Sprintf("%.0f..%.0f", z.Bounds.X.Lo, z.Bounds.X.Hi),
			fmt.Sprintf("%.0f..%.0f", z.Bounds.Y.Lo, z.Bounds.Y.Hi),
		)
	}
	table.Render()
}

// PrintPlayerTable prints movement and role signals per player.
// If focusID is non-empty, that player's row is marked with ">".
func PrintPlayerTable(w io.Writer, players []model.PlayerReport, focusID string) {
	table := newTable(w)
	table.Header(" ", "PLAYER", "SIDE", "DIST", "AVG_SPD", "PEAK_SPD", "ROT",
		"TOP_ZONE", "CONSIST", "COVER", "MATE_DIST", "ROLES")

	for _, p := range players {
		m, a := p.Movement, p.Roles
		marker := " "
		if focusID != "" && m.PlayerID == focusID {
			marker = ">"
		}
		topZone := "-"
		if z, v := m.DominantZone(); z != "" {
			topZone = fmt.Sprintf("%s (%s)", z, pct(v))
		}
		roles := "-"
		if len(a.Signals) > 0 {
			roles = strings.Join(a.Roles(), ",")
		}
		table.Append(
			marker,
			playerLabel(m),
			m.Side.String(),
			fmt.Sprintf("%.0f", m.TotalDistance),
			fmt.Sprintf("%.0f", m.AverageSpeed),
			fmt.Sprintf("%.0f", m.PeakSpeed),
			strconv.Itoa(m.RotationCount),
			topZone,
			fmt.Sprintf("%.2f", a.PositionConsistency),
			fmt.Sprintf("%.2f", a.MapCoverage),
			fmt.Sprintf("%.0f", a.TeammateDistance),
			roles,
		)
	}
	table.Render()
}

func playerLabel(m model.MovementAnalysis) string {
	if m.PlayerName != "" {
		return m.PlayerName
	}
	return m.PlayerID
}

// PrintTeamTable prints both sides' tactical aggregates. POWER lists the
// three best-held power positions.
func PrintTeamTable(w io.Writer, a, b model.TeamTacticalReport) {
	table := newTable(w)
	table.Header("SIDE", "PLAYERS", "COHESION", "AVG_DIST", "TRADE", "COORD", "SYNC", "EXEC", "SETUP", "POWER")

	for _, t := range []model.TeamTacticalReport{a, b} {
		exec, setup := "-", "-"
		if t.Side.Attacking() {
			exec = fmt.Sprintf("%.2f", t.ExecutionScore)
		} else {
			setup = fmt.Sprintf("%.2f", t.SetupScore)
		}
		var power []string
		for i, z := range tactics.SortedZones(t.PowerPositionControl) {
			if i == 3 {
				break
			}
			power = append(power, fmt.Sprintf("%s %s", z, pct(t.PowerPositionControl[z])))
		}
		powerStr := "-"
		if len(power) > 0 {
			powerStr = strings.Join(power, ", ")
		}
		table.Append(
			t.Side.String(),
			strconv.Itoa(t.Players),
			fmt.Sprintf("%.2f", t.Cohesion),
			fmt.Sprintf("%.0f", t.AverageDistance),
			fmt.Sprintf("%.2f", t.TradeEfficiency),
			fmt.Sprintf("%.2f", t.MovementCoordination),
			fmt.Sprintf("%.2f", t.RotationSynchrony),
			exec,
			setup,
			powerStr,
		)
	}
	table.Render()
}

// PrintUtilityTable prints every scored utility detonation.
func PrintUtilityTable(w io.Writer, impacts []model.UtilityImpact) {
	if len(impacts) == 0 {
		fmt.Fprintln(w, "No utility detonations.")
		return
	}
	table := newTable(w)
	table.Header("TICK", "THROWER", "SIDE", "KIND", "ZONE", "AFFECTED", "EFFECT")

	for _, u := range impacts {
		table.Append(
			strconv.Itoa(u.Tick),
			u.ThrowerID,
			u.Side.String(),
			u.Kind.String(),
			u.Zone,
			strconv.Itoa(u.Affected),
			fmt.Sprintf("%.2f", u.Effectiveness),
		)
	}
	table.Render()
}

// PrintOutcome prints the round win estimate followed by its ranked factors.
func PrintOutcome(w io.Writer, est model.RoundOutcomeEstimate) {
	fmt.Fprintf(w, "Win estimate:  A %s  |  B %s\n", pct(est.ProbabilityA), pct(est.ProbabilityB))
	if len(est.Factors) == 0 {
		fmt.Fprintln(w, "  no factor moved the estimate")
		return
	}
	for i, s := range est.Statements() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}
}

// PrintRoundReport prints every section of one round.
func PrintRoundReport(w io.Writer, r *model.RoundReport, focusID string) {
	fmt.Fprintf(w, "\n--- Round %d ---\n\n", r.RoundNumber)
	PrintZoneTable(w, r.Zones)
	fmt.Fprintln(w)
	PrintPlayerTable(w, r.Players, focusID)
	fmt.Fprintln(w)
	PrintTeamTable(w, r.SideA, r.SideB)
	fmt.Fprintln(w)
	PrintUtilityTable(w, r.Utility)
	fmt.Fprintln(w)
	PrintOutcome(w, r.Outcome)
}

// PrintPlayerRounds prints one player's per-round drill-down across reports.
// Rounds the player did not appear in are skipped. It returns the number of
// rows printed.
func PrintPlayerRounds(w io.Writer, reports []*model.RoundReport, playerID string) int {
	table := newTable(w)
	table.Header("ROUND", "SIDE", "DIST", "AVG_SPD", "ROT", "TOP_ZONE", "ROLES", "TEAM_WIN")

	var name string
	n := 0
	for _, r := range reports {
		for _, p := range r.Players {
			m := p.Movement
			if m.PlayerID != playerID {
				continue
			}
			name = playerLabel(m)
			topZone := "-"
			if z, _ := m.DominantZone(); z != "" {
				topZone = z
			}
			roles := "-"
			if len(p.Roles.Signals) > 0 {
				roles = strings.Join(p.Roles.Roles(), ",")
			}
			win := r.Outcome.ProbabilityA
			if m.Side == model.SideB {
				win = r.Outcome.ProbabilityB
			}
			table.Append(
				strconv.Itoa(r.RoundNumber),
				m.Side.String(),
				fmt.Sprintf("%.0f", m.TotalDistance),
				fmt.Sprintf("%.0f", m.AverageSpeed),
				strconv.Itoa(m.RotationCount),
				topZone,
				roles,
				pct(win),
			)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	fmt.Fprintf(w, "\n%s (%s)\n\n", name, playerID)
	table.Render()
	return n
}

func sampleFlag(n int) string {
	switch {
	case n >= 50:
		return "OK"
	case n >= 20:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}
