// Package movement turns one player's ordered samples for a round into a
// MovementAnalysis.
package movement

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/pable/go-cs-tactics/internal/geom"
	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/zones"
)

// Analyze computes distance, speed, rotations, zone presence and the
// position heatmap for a single player in a single round. samples must be
// non-empty, tick-ordered and belong to one player and one round.
func Analyze(samples []model.TelemetrySample, catalog []model.MapZone, tickRate float64) (model.MovementAnalysis, error) {
	if err := validate(samples); err != nil {
		return model.MovementAnalysis{}, err
	}

	first := samples[0]
	n := len(samples)
	out := model.MovementAnalysis{
		PlayerID:        first.PlayerID,
		PlayerName:      first.PlayerName,
		Side:            first.Side,
		RoundNumber:     first.RoundNumber,
		ZonePresence:    make(map[string]float64),
		PositionHeatmap: make([]r2.Point, n),
		Ticks:           make([]int, n),
		ZoneTrack:       make([]string, n),
	}

	counts := make(map[string]int)
	var tracker RotationTracker
	for i, s := range samples {
		if i > 0 {
			out.TotalDistance += geom.Distance(samples[i-1].Position, s.Position)
		}
		if sp := geom.Speed(s.Velocity); sp > out.PeakSpeed {
			out.PeakSpeed = sp
		}

		p := s.Planar()
		label := zones.Locate(catalog, p)
		tracker.Observe(label)
		if label != model.Unmapped {
			counts[label]++
		}

		out.PositionHeatmap[i] = p
		out.Ticks[i] = s.Tick
		out.ZoneTrack[i] = label
	}
	out.RotationCount = tracker.Count()

	if tickRate > 0 {
		elapsed := float64(samples[n-1].Tick-first.Tick) / tickRate
		if elapsed > 0 {
			out.AverageSpeed = out.TotalDistance / elapsed
		}
	}

	for label, c := range counts {
		out.ZonePresence[label] = float64(c) / float64(n)
	}
	return out, nil
}

func validate(samples []model.TelemetrySample) error {
	if len(samples) == 0 {
		return fmt.Errorf("analyze movement: %w: no samples", model.ErrInvalidInput)
	}
	first := samples[0]
	for i, s := range samples[1:] {
		prev := samples[i]
		switch {
		case s.PlayerID != first.PlayerID:
			return fmt.Errorf("analyze movement: %w: samples mix players %s and %s",
				model.ErrInvalidInput, first.PlayerID, s.PlayerID)
		case s.RoundNumber != first.RoundNumber:
			return fmt.Errorf("analyze movement: %w: samples mix rounds %d and %d",
				model.ErrInvalidInput, first.RoundNumber, s.RoundNumber)
		case s.Tick < prev.Tick:
			return fmt.Errorf("analyze movement: %w: tick %d follows tick %d",
				model.ErrInvalidInput, s.Tick, prev.Tick)
		}
	}
	return nil
}

// RotationTracker counts transitions between named zones. Unmapped samples
// neither count nor reset the last named zone, so flicker through unmapped
// space back into the same zone is not a rotation.
type RotationTracker struct {
	last  string
	count int
}

// Observe feeds the next sample's zone label and reports whether it
// completed a rotation.
func (t *RotationTracker) Observe(label string) bool {
	if label == model.Unmapped || label == "" {
		return false
	}
	rotated := t.last != "" && label != t.last
	if rotated {
		t.count++
	}
	t.last = label
	return rotated
}

// Count is the number of rotations seen so far.
func (t *RotationTracker) Count() int { return t.count }
