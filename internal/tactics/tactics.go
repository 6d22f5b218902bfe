// Package tactics aggregates one side's movement analyses into team-level
// tactical metrics, and compares two sides over the round's power positions.
package tactics

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r2"

	"github.com/pable/go-cs-tactics/internal/config"
	"github.com/pable/go-cs-tactics/internal/geom"
	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/movement"
)

// Aggregate builds the TeamTacticalReport for team. opposing may be empty:
// the report is then not all-zero. The team's own metrics (cohesion, map
// control and the rest) are still computed and only PowerPositionControl,
// which needs an opponent, is left as an empty map.
func Aggregate(team, opposing []model.MovementAnalysis, catalog []model.MapZone, cfg config.Team) (model.TeamTacticalReport, error) {
	if len(team) == 0 {
		return model.TeamTacticalReport{}, fmt.Errorf("aggregate team: %w: no players", model.ErrInvalidInput)
	}
	side := team[0].Side
	for _, p := range team[1:] {
		if p.Side != side {
			return model.TeamTacticalReport{}, fmt.Errorf("aggregate team: %w: players %s and %s are on different sides",
				model.ErrInvalidInput, team[0].PlayerID, p.PlayerID)
		}
	}

	stride := max(cfg.SampleStride, 1)
	frames := frameIndices(team, stride)

	lo, hi := cfg.DefenseCohesionMin, cfg.DefenseCohesionMax
	if side.Attacking() {
		lo, hi = cfg.AttackCohesionMin, cfg.AttackCohesionMax
	}
	cohesion, avgDist := cohesionScore(team, frames, lo, hi)

	r := model.TeamTacticalReport{
		Side:                 side,
		Players:              len(team),
		Cohesion:             cohesion,
		AverageDistance:      avgDist,
		TradeEfficiency:      tradeEfficiency(team, frames, cfg.TradeMinDistance, cfg.TradeMaxDistance),
		MapControl:           mapControl(team, catalog),
		PowerPositionControl: map[string]float64{},
		MovementCoordination: movementCoordination(team, frames, stride, cfg.MinMoveDistance),
		RotationSynchrony:    rotationSynchrony(team, cfg.RotationWindowTicks),
	}
	if len(opposing) > 0 {
		r.PowerPositionControl = ContestPowerPositions(team, opposing, catalog, cfg)
	}

	if side.Attacking() {
		r.ExecutionScore = executionScore(team, ResolveZones(cfg.EntryZones, catalog))
	} else {
		r.SetupScore = setupScore(team, ResolveZones(cfg.DefensiveZones, catalog), cfg.OccupancyThreshold)
	}
	return r, nil
}

// ContestPowerPositions returns, per power zone, the share of all presence
// samples in that zone that belong to side a. A zone neither side visited
// is split evenly.
func ContestPowerPositions(a, b []model.MovementAnalysis, catalog []model.MapZone, cfg config.Team) map[string]float64 {
	out := make(map[string]float64)
	for _, z := range ResolveZones(cfg.PowerZones, catalog) {
		ta, tb := presenceSamples(a, z), presenceSamples(b, z)
		if ta+tb == 0 {
			out[z] = 0.5
			continue
		}
		out[z] = ta / (ta + tb)
	}
	return out
}

// ResolveZones keeps the declared labels generated this round, in declared
// order. With no declaration, or none of it present, every non-spawn zone is
// used.
func ResolveZones(declared []string, catalog []model.MapZone) []string {
	known := make(map[string]bool, len(catalog))
	for _, z := range catalog {
		known[z.Label] = true
	}
	var out []string
	for _, d := range declared {
		if known[d] {
			out = append(out, d)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, z := range catalog {
		if z.Spawn == model.SideNone {
			out = append(out, z.Label)
		}
	}
	return out
}

// frameIndices samples heatmap indices shared by every player.
func frameIndices(team []model.MovementAnalysis, stride int) []int {
	n := commonLength(team)
	var out []int
	for i := 0; i < n; i += stride {
		out = append(out, i)
	}
	return out
}

func commonLength(team []model.MovementAnalysis) int {
	n := math.MaxInt
	for _, p := range team {
		n = min(n, len(p.PositionHeatmap))
	}
	if n == math.MaxInt {
		return 0
	}
	return n
}

// meanPairwise is the mean distance over every teammate pair at index i.
func meanPairwise(team []model.MovementAnalysis, i int) float64 {
	var sum float64
	var pairs int
	for a := 0; a < len(team); a++ {
		for b := a + 1; b < len(team); b++ {
			sum += geom.Distance2D(team[a].PositionHeatmap[i], team[b].PositionHeatmap[i])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// cohesionScore is the fraction of frames whose mean pairwise distance lies
// in [lo, hi]. A lone player scores a neutral 0.5.
func cohesionScore(team []model.MovementAnalysis, frames []int, lo, hi float64) (score, avgDist float64) {
	if len(team) < 2 || len(frames) == 0 {
		return 0.5, 0
	}
	var inBand int
	var sum float64
	for _, f := range frames {
		d := meanPairwise(team, f)
		sum += d
		if geom.Between(d, lo, hi) {
			inBand++
		}
	}
	n := float64(len(frames))
	return float64(inBand) / n, sum / n
}

// tradeEfficiency is the fraction of (player, frame) positions with at least
// one teammate inside the tradeable band.
func tradeEfficiency(team []model.MovementAnalysis, frames []int, lo, hi float64) float64 {
	if len(team) < 2 || len(frames) == 0 {
		return 0
	}
	var covered, total int
	for _, f := range frames {
		for a := range team {
			total++
			for b := range team {
				if a == b {
					continue
				}
				if geom.Between(geom.Distance2D(team[a].PositionHeatmap[f], team[b].PositionHeatmap[f]), lo, hi) {
					covered++
					break
				}
			}
		}
	}
	return float64(covered) / float64(total)
}

// mapControl averages each zone's presence across the team.
func mapControl(team []model.MovementAnalysis, catalog []model.MapZone) map[string]float64 {
	labels := make(map[string]struct{})
	for _, z := range catalog {
		labels[z.Label] = struct{}{}
	}
	for _, p := range team {
		for l := range p.ZonePresence {
			labels[l] = struct{}{}
		}
	}
	out := make(map[string]float64, len(labels))
	for l := range labels {
		var sum float64
		for _, p := range team {
			sum += p.ZonePresence[l]
		}
		out[l] = sum / float64(len(team))
	}
	return out
}

// presenceSamples converts presence ratios back into sample counts so sides
// with different sample totals compare fairly.
func presenceSamples(players []model.MovementAnalysis, zone string) float64 {
	var sum float64
	for _, p := range players {
		sum += p.ZonePresence[zone] * float64(len(p.PositionHeatmap))
	}
	return sum
}

// movementCoordination scores how closely movers head the same way. Each
// frame rescales the cosine between a mover's heading and the team's mean
// heading to [0,1]. Frames with fewer than two movers are skipped; with no
// usable frame the score is a neutral 0.5.
func movementCoordination(team []model.MovementAnalysis, frames []int, stride int, minMove float64) float64 {
	n := commonLength(team)
	var sum float64
	var used int
	for _, f := range frames {
		if f+stride >= n {
			break
		}
		var units []r2.Point
		for _, p := range team {
			v := p.PositionHeatmap[f+stride].Sub(p.PositionHeatmap[f])
			if v.Norm() < minMove || v.Norm() == 0 {
				continue
			}
			units = append(units, v.Normalize())
		}
		if len(units) < 2 {
			continue
		}
		var mean r2.Point
		for _, u := range units {
			mean = mean.Add(u)
		}
		used++
		if mean.Norm() < 1e-9 {
			continue // movers cancel out: frame scores 0
		}
		mean = mean.Normalize()
		var frame float64
		for _, u := range units {
			frame += (u.Dot(mean) + 1) / 2
		}
		sum += frame / float64(len(units))
	}
	if used == 0 {
		return 0.5
	}
	return sum / float64(used)
}

// rotationSynchrony groups rotations into fixed tick windows. With k_w
// distinct rotators in window w and R distinct rotators overall the score
// is Σk_w² / (R·Σk_w): 1 when everyone rotates together, 1/R when every
// rotation happens alone.
func rotationSynchrony(team []model.MovementAnalysis, windowTicks int) float64 {
	if len(team) < 2 || windowTicks < 1 {
		return 0
	}
	start := math.MaxInt
	for _, p := range team {
		if len(p.Ticks) > 0 {
			start = min(start, p.Ticks[0])
		}
	}
	if start == math.MaxInt {
		return 0
	}

	windows := make(map[int]map[string]bool)
	rotators := make(map[string]bool)
	for _, p := range team {
		var tr movement.RotationTracker
		for i, label := range p.ZoneTrack {
			if !tr.Observe(label) || i >= len(p.Ticks) {
				continue
			}
			w := (p.Ticks[i] - start) / windowTicks
			if windows[w] == nil {
				windows[w] = make(map[string]bool)
			}
			windows[w][p.PlayerID] = true
			rotators[p.PlayerID] = true
		}
	}
	if len(rotators) == 0 {
		return 0
	}

	var sumK, sumK2 float64
	for _, set := range windows {
		k := float64(len(set))
		sumK += k
		sumK2 += k * k
	}
	return sumK2 / (float64(len(rotators)) * sumK)
}

// executionScore is the peak fraction of the team standing in a single
// entry zone at the same sample index.
func executionScore(team []model.MovementAnalysis, entryZones []string) float64 {
	if len(entryZones) == 0 {
		return 0
	}
	entry := make(map[string]bool, len(entryZones))
	for _, z := range entryZones {
		entry[z] = true
	}
	n := math.MaxInt
	for _, p := range team {
		n = min(n, len(p.ZoneTrack))
	}
	peak := 0
	for i := 0; i < n; i++ {
		counts := make(map[string]int)
		for _, p := range team {
			if z := p.ZoneTrack[i]; entry[z] {
				counts[z]++
				peak = max(peak, counts[z])
			}
		}
	}
	return float64(peak) / float64(len(team))
}

// setupScore rewards covering every defensive zone and spreading presence
// evenly across them: coverage × (0.5 + 0.5·evenness), evenness being the
// normalised entropy of per-zone presence.
func setupScore(team []model.MovementAnalysis, defZones []string, occupancy float64) float64 {
	if len(defZones) == 0 {
		return 0
	}
	var occupied int
	shares := make([]float64, len(defZones))
	var total float64
	for i, z := range defZones {
		taken := false
		for _, p := range team {
			v := p.ZonePresence[z]
			shares[i] += v
			if v > 0 && v >= occupancy {
				taken = true
			}
		}
		total += shares[i]
		if taken {
			occupied++
		}
	}
	if total == 0 {
		return 0
	}
	coverage := float64(occupied) / float64(len(defZones))

	evenness := 1.0
	if len(defZones) > 1 {
		var h float64
		for _, s := range shares {
			if s == 0 {
				continue
			}
			q := s / total
			h -= q * math.Log(q)
		}
		evenness = h / math.Log(float64(len(defZones)))
	}
	return coverage * (0.5 + 0.5*evenness)
}

// SortedZones returns the keys of a per-zone map in descending value order,
// ties by label. Used by reports.
func SortedZones(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if m[out[i]] != m[out[j]] {
			return m[out[i]] > m[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
