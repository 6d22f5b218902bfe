package storage

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/pable/go-cs-tactics/internal/model"
)

// DemoExists returns true if a demo with the given hash is already stored.
func (db *DB) DemoExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM demos WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertDemo inserts or updates a demo record.
func (db *DB) InsertDemo(s model.DemoSummary) error {
	_, err := db.conn.Exec(`
		INSERT INTO demos(hash, source, map_name, imported_at, tickrate, rounds)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			source = excluded.source, map_name = excluded.map_name,
			imported_at = excluded.imported_at, tickrate = excluded.tickrate, rounds = excluded.rounds`,
		s.Hash, s.Source, s.MapName, s.ImportedAt, s.TickRate, s.Rounds,
	)
	return err
}

// ListDemos returns all stored demos, newest import first.
func (db *DB) ListDemos() ([]model.DemoSummary, error) {
	rows, err := db.conn.Query(`
		SELECT hash, source, map_name, imported_at, tickrate, rounds
		FROM demos ORDER BY imported_at DESC, hash`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DemoSummary
	for rows.Next() {
		var s model.DemoSummary
		if err := rows.Scan(&s.Hash, &s.Source, &s.MapName, &s.ImportedAt, &s.TickRate, &s.Rounds); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetDemoByPrefix finds the first demo whose hash starts with the given prefix.
func (db *DB) GetDemoByPrefix(prefix string) (*model.DemoSummary, error) {
	var s model.DemoSummary
	err := db.conn.QueryRow(`
		SELECT hash, source, map_name, imported_at, tickrate, rounds
		FROM demos WHERE hash LIKE ? ORDER BY hash LIMIT 1`, prefix+"%").
		Scan(&s.Hash, &s.Source, &s.MapName, &s.ImportedAt, &s.TickRate, &s.Rounds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// roundTables lists every per-round table, children of demos.
var roundTables = []string{
	"round_zones", "player_movement", "zone_presence", "team_tactics",
	"team_zone_control", "round_outcomes", "round_factors", "utility_impacts",
}

// DeleteDemo removes a demo and all of its round rows. It reports whether
// the demo existed.
func (db *DB) DeleteDemo(hash string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, t := range roundTables {
		if _, err := tx.Exec("DELETE FROM "+t+" WHERE demo_hash = ?", hash); err != nil {
			return false, fmt.Errorf("clear %s: %w", t, err)
		}
	}
	res, err := tx.Exec("DELETE FROM demos WHERE hash = ?", hash)
	if err != nil {
		return false, fmt.Errorf("delete demo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

// InsertRoundReports replaces every stored round of the demo with reports,
// in a single transaction. Heatmaps are not persisted.
func (db *DB) InsertRoundReports(hash string, reports []*model.RoundReport) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range roundTables {
		if _, err := tx.Exec("DELETE FROM "+t+" WHERE demo_hash = ?", hash); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}

	stmts := map[string]string{
		"zone": `INSERT INTO round_zones(demo_hash, round_number, seq, label,
			min_x, min_y, max_x, max_y, centroid_x, centroid_y, samples, spawn)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		"player": `INSERT INTO player_movement(demo_hash, round_number, player_id, name, side,
			total_distance, average_speed, peak_speed, rotation_count,
			position_consistency, rotation_efficiency, map_coverage, teammate_distance, roles)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		"presence": `INSERT INTO zone_presence(demo_hash, round_number, player_id, zone, presence)
			VALUES (?,?,?,?,?)`,
		"team": `INSERT INTO team_tactics(demo_hash, round_number, side, players,
			cohesion, average_distance, trade_efficiency, movement_coordination,
			rotation_synchrony, execution_score, setup_score)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		"control": `INSERT INTO team_zone_control(demo_hash, round_number, side, zone, map_control, power_control)
			VALUES (?,?,?,?,?,?)`,
		"outcome": `INSERT INTO round_outcomes(demo_hash, round_number, probability_a, probability_b)
			VALUES (?,?,?,?)`,
		"factor": `INSERT INTO round_factors(demo_hash, round_number, rank, name, adjustment, statement)
			VALUES (?,?,?,?,?,?)`,
		"utility": `INSERT INTO utility_impacts(demo_hash, round_number, seq, thrower_id, side, kind,
			tick, x, y, z, zone, affected, effectiveness)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	}
	prepared := make(map[string]*sql.Stmt, len(stmts))
	for name, q := range stmts {
		stmt, err := tx.Prepare(q)
		if err != nil {
			return fmt.Errorf("prepare %s insert: %w", name, err)
		}
		defer stmt.Close()
		prepared[name] = stmt
	}

	for _, r := range reports {
		rn := r.RoundNumber
		for i, z := range r.Zones {
			if _, err := prepared["zone"].Exec(hash, rn, i, z.Label,
				z.Bounds.X.Lo, z.Bounds.Y.Lo, z.Bounds.X.Hi, z.Bounds.Y.Hi,
				z.Centroid.X, z.Centroid.Y, z.Samples, sideText(z.Spawn)); err != nil {
				return fmt.Errorf("insert zone %s round %d: %w", z.Label, rn, err)
			}
		}

		for _, p := range r.Players {
			m, a := p.Movement, p.Roles
			if _, err := prepared["player"].Exec(hash, rn, m.PlayerID, m.PlayerName, sideText(m.Side),
				m.TotalDistance, m.AverageSpeed, m.PeakSpeed, m.RotationCount,
				a.PositionConsistency, a.RotationEfficiency, a.MapCoverage, a.TeammateDistance,
				strings.Join(a.Roles(), ",")); err != nil {
				return fmt.Errorf("insert player %s round %d: %w", m.PlayerID, rn, err)
			}
			for zone, v := range m.ZonePresence {
				if _, err := prepared["presence"].Exec(hash, rn, m.PlayerID, zone, v); err != nil {
					return fmt.Errorf("insert presence %s/%s round %d: %w", m.PlayerID, zone, rn, err)
				}
			}
		}

		for _, t := range []model.TeamTacticalReport{r.SideA, r.SideB} {
			if _, err := prepared["team"].Exec(hash, rn, sideText(t.Side), t.Players,
				t.Cohesion, t.AverageDistance, t.TradeEfficiency, t.MovementCoordination,
				t.RotationSynchrony, t.ExecutionScore, t.SetupScore); err != nil {
				return fmt.Errorf("insert team %s round %d: %w", t.Side, rn, err)
			}
			for _, zone := range controlZones(t) {
				if _, err := prepared["control"].Exec(hash, rn, sideText(t.Side), zone,
					nullable(t.MapControl, zone), nullable(t.PowerPositionControl, zone)); err != nil {
					return fmt.Errorf("insert zone control %s/%s round %d: %w", t.Side, zone, rn, err)
				}
			}
		}

		if _, err := prepared["outcome"].Exec(hash, rn, r.Outcome.ProbabilityA, r.Outcome.ProbabilityB); err != nil {
			return fmt.Errorf("insert outcome round %d: %w", rn, err)
		}
		for i, f := range r.Outcome.Factors {
			if _, err := prepared["factor"].Exec(hash, rn, i, f.Name, f.Adjustment, f.Statement); err != nil {
				return fmt.Errorf("insert factor %s round %d: %w", f.Name, rn, err)
			}
		}

		for i, u := range r.Utility {
			if _, err := prepared["utility"].Exec(hash, rn, i, u.ThrowerID, sideText(u.Side), u.Kind.String(),
				u.Tick, u.Position.X, u.Position.Y, u.Position.Z, u.Zone, u.Affected, u.Effectiveness); err != nil {
				return fmt.Errorf("insert utility round %d: %w", rn, err)
			}
		}
	}
	return tx.Commit()
}

// GetRoundReports rebuilds the stored reports of a demo in round order.
// round 0 returns every round. Heatmaps and role metrics are not stored,
// so PositionHeatmap is empty and role signals carry no metrics.
func (db *DB) GetRoundReports(hash string, round int) ([]*model.RoundReport, error) {
	byRound := make(map[int]*model.RoundReport)
	var order []int

	rows, err := db.conn.Query(`
		SELECT round_number, probability_a, probability_b FROM round_outcomes
		WHERE demo_hash = ? AND (? = 0 OR round_number = ?)
		ORDER BY round_number`, hash, round, round)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		r := &model.RoundReport{}
		if err := rows.Scan(&r.RoundNumber, &r.Outcome.ProbabilityA, &r.Outcome.ProbabilityB); err != nil {
			rows.Close()
			return nil, err
		}
		r.SideA = model.TeamTacticalReport{Side: model.SideA, MapControl: map[string]float64{}, PowerPositionControl: map[string]float64{}}
		r.SideB = model.TeamTacticalReport{Side: model.SideB, MapControl: map[string]float64{}, PowerPositionControl: map[string]float64{}}
		byRound[r.RoundNumber] = r
		order = append(order, r.RoundNumber)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, nil
	}

	loaders := []func(string, int, map[int]*model.RoundReport) error{
		db.loadZones, db.loadPlayers, db.loadPresence, db.loadTeams,
		db.loadZoneControl, db.loadFactors, db.loadUtility,
	}
	for _, load := range loaders {
		if err := load(hash, round, byRound); err != nil {
			return nil, err
		}
	}

	out := make([]*model.RoundReport, 0, len(order))
	for _, rn := range order {
		out = append(out, byRound[rn])
	}
	return out, nil
}

func (db *DB) loadZones(hash string, round int, byRound map[int]*model.RoundReport) error {
	rows, err := db.conn.Query(`
		SELECT round_number, label, min_x, min_y, max_x, max_y, centroid_x, centroid_y, samples, spawn
		FROM round_zones WHERE demo_hash = ? AND (? = 0 OR round_number = ?)
		ORDER BY round_number, seq`, hash, round, round)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rn int
		var z model.MapZone
		var spawn string
		if err := rows.Scan(&rn, &z.Label, &z.Bounds.X.Lo, &z.Bounds.Y.Lo, &z.Bounds.X.Hi, &z.Bounds.Y.Hi,
			&z.Centroid.X, &z.Centroid.Y, &z.Samples, &spawn); err != nil {
			return err
		}
		z.Spawn = parseSide(spawn)
		if r := byRound[rn]; r != nil {
			r.Zones = append(r.Zones, z)
		}
	}
	return rows.Err()
}

func (db *DB) loadPlayers(hash string, round int, byRound map[int]*model.RoundReport) error {
	rows, err := db.conn.Query(`
		SELECT round_number, player_id, name, side, total_distance, average_speed, peak_speed, rotation_count,
		       position_consistency, rotation_efficiency, map_coverage, teammate_distance, roles
		FROM player_movement WHERE demo_hash = ? AND (? = 0 OR round_number = ?)
		ORDER BY round_number, player_id`, hash, round, round)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m model.MovementAnalysis
		var a model.RoleAssessment
		var side, roles string
		if err := rows.Scan(&m.RoundNumber, &m.PlayerID, &m.PlayerName, &side,
			&m.TotalDistance, &m.AverageSpeed, &m.PeakSpeed, &m.RotationCount,
			&a.PositionConsistency, &a.RotationEfficiency, &a.MapCoverage, &a.TeammateDistance, &roles); err != nil {
			return err
		}
		m.Side = parseSide(side)
		m.ZonePresence = map[string]float64{}
		a.PlayerID = m.PlayerID
		for _, role := range strings.Split(roles, ",") {
			if role != "" {
				a.Signals = append(a.Signals, model.RoleSignal{Role: model.RoleKind(role)})
			}
		}
		if r := byRound[m.RoundNumber]; r != nil {
			r.Players = append(r.Players, model.PlayerReport{Movement: m, Roles: a})
		}
	}
	return rows.Err()
}

func (db *DB) loadPresence(hash string, round int, byRound map[int]*model.RoundReport) error {
	rows, err := db.conn.Query(`
		SELECT round_number, player_id, zone, presence
		FROM zone_presence WHERE demo_hash = ? AND (? = 0 OR round_number = ?)`, hash, round, round)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rn int
		var id, zone string
		var v float64
		if err := rows.Scan(&rn, &id, &zone, &v); err != nil {
			return err
		}
		r := byRound[rn]
		if r == nil {
			continue
		}
		for i := range r.Players {
			if r.Players[i].Movement.PlayerID == id {
				r.Players[i].Movement.ZonePresence[zone] = v
				break
			}
		}
	}
	return rows.Err()
}

func (db *DB) loadTeams(hash string, round int, byRound map[int]*model.RoundReport) error {
	rows, err := db.conn.Query(`
		SELECT round_number, side, players, cohesion, average_distance, trade_efficiency,
		       movement_coordination, rotation_synchrony, execution_score, setup_score
		FROM team_tactics WHERE demo_hash = ? AND (? = 0 OR round_number = ?)`, hash, round, round)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rn int
		var side string
		var t model.TeamTacticalReport
		if err := rows.Scan(&rn, &side, &t.Players, &t.Cohesion, &t.AverageDistance, &t.TradeEfficiency,
			&t.MovementCoordination, &t.RotationSynchrony, &t.ExecutionScore, &t.SetupScore); err != nil {
			return err
		}
		r := byRound[rn]
		if r == nil {
			continue
		}
		dst := teamFor(r, parseSide(side))
		if dst == nil {
			continue
		}
		t.Side = dst.Side
		t.MapControl, t.PowerPositionControl = dst.MapControl, dst.PowerPositionControl
		*dst = t
	}
	return rows.Err()
}

func (db *DB) loadZoneControl(hash string, round int, byRound map[int]*model.RoundReport) error {
	rows, err := db.conn.Query(`
		SELECT round_number, side, zone, map_control, power_control
		FROM team_zone_control WHERE demo_hash = ? AND (? = 0 OR round_number = ?)`, hash, round, round)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rn int
		var side, zone string
		var mapCtl, powerCtl sql.NullFloat64
		if err := rows.Scan(&rn, &side, &zone, &mapCtl, &powerCtl); err != nil {
			return err
		}
		r := byRound[rn]
		if r == nil {
			continue
		}
		t := teamFor(r, parseSide(side))
		if t == nil {
			continue
		}
		if mapCtl.Valid {
			t.MapControl[zone] = mapCtl.Float64
		}
		if powerCtl.Valid {
			t.PowerPositionControl[zone] = powerCtl.Float64
		}
	}
	return rows.Err()
}

func (db *DB) loadFactors(hash string, round int, byRound map[int]*model.RoundReport) error {
	rows, err := db.conn.Query(`
		SELECT round_number, name, adjustment, statement
		FROM round_factors WHERE demo_hash = ? AND (? = 0 OR round_number = ?)
		ORDER BY round_number, rank`, hash, round, round)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rn int
		var f model.Factor
		if err := rows.Scan(&rn, &f.Name, &f.Adjustment, &f.Statement); err != nil {
			return err
		}
		if r := byRound[rn]; r != nil {
			r.Outcome.Factors = append(r.Outcome.Factors, f)
		}
	}
	return rows.Err()
}

func (db *DB) loadUtility(hash string, round int, byRound map[int]*model.RoundReport) error {
	rows, err := db.conn.Query(`
		SELECT round_number, thrower_id, side, kind, tick, x, y, z, zone, affected, effectiveness
		FROM utility_impacts WHERE demo_hash = ? AND (? = 0 OR round_number = ?)
		ORDER BY round_number, seq`, hash, round, round)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rn int
		var u model.UtilityImpact
		var side, kind string
		var pos r3.Vector
		if err := rows.Scan(&rn, &u.ThrowerID, &side, &kind, &u.Tick, &pos.X, &pos.Y, &pos.Z,
			&u.Zone, &u.Affected, &u.Effectiveness); err != nil {
			return err
		}
		u.Side = parseSide(side)
		u.Position = pos
		if k, err := model.ParseUtilityKind(kind); err == nil {
			u.Kind = k
		}
		if r := byRound[rn]; r != nil {
			r.Utility = append(r.Utility, u)
		}
	}
	return rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and every row
// rendered as text. NULL renders as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%.4g", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func teamFor(r *model.RoundReport, side model.Side) *model.TeamTacticalReport {
	switch side {
	case model.SideA:
		return &r.SideA
	case model.SideB:
		return &r.SideB
	}
	return nil
}

// controlZones is the sorted union of a team's map-control and
// power-position zones.
func controlZones(t model.TeamTacticalReport) []string {
	seen := make(map[string]bool)
	for z := range t.MapControl {
		seen[z] = true
	}
	for z := range t.PowerPositionControl {
		seen[z] = true
	}
	out := make([]string, 0, len(seen))
	for z := range seen {
		out = append(out, z)
	}
	sort.Strings(out)
	return out
}

func nullable(m map[string]float64, key string) sql.NullFloat64 {
	v, ok := m[key]
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func sideText(s model.Side) string {
	if s == model.SideNone {
		return ""
	}
	return s.String()
}

func parseSide(s string) model.Side {
	side, err := model.ParseSide(s)
	if err != nil {
		return model.SideNone
	}
	return side
}
