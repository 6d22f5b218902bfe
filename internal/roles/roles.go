// Package roles labels heuristic behaviour profiles from movement analyses.
//
// Profiles are evaluated independently: a player can be a holder and a
// lurker in the same round, or match nothing at all.
package roles

import (
	"math"
	"sort"

	"github.com/pable/go-cs-tactics/internal/config"
	"github.com/pable/go-cs-tactics/internal/geom"
	"github.com/pable/go-cs-tactics/internal/model"
)

// Classify computes the universal metrics for subject and every profile it
// matches. all may include subject; it is skipped when comparing against
// teammates.
func Classify(subject model.MovementAnalysis, all []model.MovementAnalysis, cfg config.Roles) model.RoleAssessment {
	out := model.RoleAssessment{
		PlayerID:            subject.PlayerID,
		PositionConsistency: positionConsistency(subject, cfg.ConsistencyScale),
		RotationEfficiency:  rotationEfficiency(subject, cfg.RotationDistanceScale),
		MapCoverage:         mapCoverage(subject),
	}

	mateDist, hasMates := TeammateDistance(subject, all, cfg.SampleStride)
	if hasMates {
		out.TeammateDistance = mateDist
	}
	_, dominance := subject.DominantZone()
	speed := subject.AverageSpeed
	rotations := subject.RotationCount

	// Holder: slow, and either parked or dominated by one zone.
	if speed < cfg.HolderMaxSpeed && (rotations <= cfg.HolderMaxRotations || dominance >= cfg.DominanceThreshold) {
		out.Signals = append(out.Signals, model.RoleSignal{
			Role: model.RoleHolder,
			Metrics: map[string]float64{
				"average_speed":        speed,
				"dominant_presence":    dominance,
				"position_consistency": out.PositionConsistency,
			},
		})
	}

	if subject.Side.Attacking() && (speed >= cfg.EntryMinSpeed || rotations >= cfg.EntryMinRotations) {
		out.Signals = append(out.Signals, model.RoleSignal{
			Role: model.RoleEntry,
			Metrics: map[string]float64{
				"speed_ratio":    speedRatio(subject, all),
				"peak_speed":     subject.PeakSpeed,
				"rotation_count": float64(rotations),
			},
		})
	}

	if hasMates &&
		geom.Between(mateDist, cfg.SupportMinDistance, cfg.SupportMaxDistance) &&
		geom.Between(speed, cfg.SupportMinSpeed, cfg.SupportMaxSpeed) {
		out.Signals = append(out.Signals, model.RoleSignal{
			Role: model.RoleSupport,
			Metrics: map[string]float64{
				"teammate_distance": mateDist,
				"average_speed":     speed,
			},
		})
	}

	isolated := hasMates && mateDist >= cfg.LurkMinDistance
	if subject.Side.Attacking() && (isolated || rotations <= cfg.LurkMaxRotations) {
		isolation := 0.0
		if hasMates && cfg.LurkMinDistance > 0 {
			isolation = geom.Clamp(mateDist/cfg.LurkMinDistance, 0, 2) / 2
		}
		out.Signals = append(out.Signals, model.RoleSignal{
			Role: model.RoleLurker,
			Metrics: map[string]float64{
				"teammate_distance": mateDist,
				"isolation":         isolation,
				"rotation_count":    float64(rotations),
			},
		})
	}
	return out
}

// TeammateDistance is the mean distance from subject to its same-side
// teammates, comparing heatmap entries at the same index every stride
// samples. ok is false when no teammate has overlapping samples.
func TeammateDistance(subject model.MovementAnalysis, all []model.MovementAnalysis, stride int) (dist float64, ok bool) {
	if stride < 1 {
		stride = 1
	}
	var sum float64
	var mates int
	for _, other := range all {
		if other.PlayerID == subject.PlayerID || other.Side != subject.Side {
			continue
		}
		n := min(len(subject.PositionHeatmap), len(other.PositionHeatmap))
		if n == 0 {
			continue
		}
		var pairSum float64
		var frames int
		for i := 0; i < n; i += stride {
			pairSum += geom.Distance2D(subject.PositionHeatmap[i], other.PositionHeatmap[i])
			frames++
		}
		sum += pairSum / float64(frames)
		mates++
	}
	if mates == 0 {
		return 0, false
	}
	return sum / float64(mates), true
}

// positionConsistency maps the spread of the heatmap to (0,1]; a player
// who never moves scores 1.
func positionConsistency(m model.MovementAnalysis, scale float64) float64 {
	if len(m.PositionHeatmap) == 0 || scale <= 0 {
		return 0
	}
	return 1 / (1 + geom.StdDev(m.PositionHeatmap)/scale)
}

// rotationEfficiency is high when rotations cost little distance. A player
// who never rotated scores 0.
func rotationEfficiency(m model.MovementAnalysis, scale float64) float64 {
	if m.RotationCount == 0 || scale <= 0 {
		return 0
	}
	perRotation := m.TotalDistance / float64(m.RotationCount)
	return 1 / (1 + perRotation/scale)
}

// mapCoverage is the mean presence across the three most-visited zones.
func mapCoverage(m model.MovementAnalysis) float64 {
	if len(m.ZonePresence) == 0 {
		return 0
	}
	vals := make([]float64, 0, len(m.ZonePresence))
	for _, v := range m.ZonePresence {
		vals = append(vals, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
	top := vals[:min(3, len(vals))]
	var sum float64
	for _, v := range top {
		sum += v
	}
	return sum / float64(len(top))
}

// speedRatio compares subject's average speed to its side's mean.
func speedRatio(subject model.MovementAnalysis, all []model.MovementAnalysis) float64 {
	var sum float64
	var n int
	seenSelf := false
	for _, m := range all {
		if m.Side != subject.Side {
			continue
		}
		if m.PlayerID == subject.PlayerID {
			seenSelf = true
		}
		sum += m.AverageSpeed
		n++
	}
	if !seenSelf {
		sum += subject.AverageSpeed
		n++
	}
	mean := sum / float64(n)
	if mean == 0 || math.IsNaN(mean) {
		return 0
	}
	return subject.AverageSpeed / mean
}
