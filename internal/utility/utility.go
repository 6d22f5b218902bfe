// Package utility estimates how much a utility detonation affected the
// players around it.
package utility

import (
	"sort"

	"github.com/pable/go-cs-tactics/internal/config"
	"github.com/pable/go-cs-tactics/internal/geom"
	"github.com/pable/go-cs-tactics/internal/model"
	"github.com/pable/go-cs-tactics/internal/tactics"
	"github.com/pable/go-cs-tactics/internal/zones"
)

// EventsFromSamples lifts every attached utility use out of samples, in
// sample order.
func EventsFromSamples(samples []model.TelemetrySample) []model.UtilityEvent {
	var out []model.UtilityEvent
	for _, s := range samples {
		if s.Utility == nil {
			continue
		}
		out = append(out, model.UtilityEvent{
			Kind:      s.Utility.Kind,
			Position:  s.Utility.Position,
			Tick:      s.Tick,
			ThrowerID: s.PlayerID,
			Side:      s.Side,
		})
	}
	return out
}

// playerWindow is one potentially affected player's view of the event.
type playerWindow struct {
	side     model.Side
	baseline *model.TelemetrySample // last sample before the event
	window   []model.TelemetrySample
	nearby   bool
	minDist  float64
	firstHit int
}

// Estimate scores ev against the round's samples. The result is in [0,1];
// with nobody in range it is cfg.FloorValue.
func Estimate(ev model.UtilityEvent, all []model.TelemetrySample, catalog []model.MapZone, cfg config.Utility) model.UtilityImpact {
	zone := zones.Locate(catalog, geom.Planar(ev.Position))
	impact := model.UtilityImpact{
		ThrowerID: ev.ThrowerID,
		Side:      ev.Side,
		Kind:      ev.Kind,
		Tick:      ev.Tick,
		Position:  ev.Position,
		Zone:      zone,
	}

	players := collect(ev, all, cfg)
	var ids []string
	for id, pw := range players {
		if pw.nearby {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	impact.Affected = len(ids)
	if len(ids) == 0 {
		impact.Effectiveness = cfg.FloorValue
		return impact
	}

	// Each player's evidence counts in proportion to how close and how early
	// they were hit, against a best case of every player at weight 1.
	var weighted float64
	enemies := 0
	for _, id := range ids {
		pw := players[id]
		prox := 1 - pw.minDist/cfg.Radius
		timing := 1 - float64(pw.firstHit-ev.Tick)/float64(cfg.WindowTicks)
		w := geom.Clamp(prox, 0, 1) * geom.Clamp(timing, 0, 1)
		weighted += w * effect(ev.Kind, pw, cfg)
		if ev.Side != model.SideNone && pw.side == ev.Side.Opponent() {
			enemies++
		}
	}
	base := weighted / float64(len(ids))

	var bonus float64
	if ev.Side != model.SideNone {
		if share := float64(enemies) / float64(len(ids)); share > 0.5 {
			bonus += cfg.EnemyBonus * (share - 0.5) * 2
		}
	}
	if zone != model.Unmapped {
		for _, hv := range tactics.ResolveZones(cfg.HighValueZones, catalog) {
			if hv == zone {
				bonus += cfg.HighValueBonus
				break
			}
		}
	}
	bonus = min(bonus, cfg.MaxBonus)

	impact.Effectiveness = geom.Clamp(base+bonus, 0, 1)
	return impact
}

// collect gathers, per non-thrower player, the samples inside the event's
// time window and whether any of them came within the radius.
func collect(ev model.UtilityEvent, all []model.TelemetrySample, cfg config.Utility) map[string]*playerWindow {
	end := ev.Tick + cfg.WindowTicks
	players := make(map[string]*playerWindow)
	for i := range all {
		s := all[i]
		if s.PlayerID == ev.ThrowerID {
			continue
		}
		pw := players[s.PlayerID]
		if pw == nil {
			pw = &playerWindow{side: s.Side}
			players[s.PlayerID] = pw
		}
		switch {
		case s.Tick < ev.Tick:
			if pw.baseline == nil || s.Tick >= pw.baseline.Tick {
				pw.baseline = &all[i]
			}
		case s.Tick <= end:
			pw.window = append(pw.window, s)
			d := geom.Distance(s.Position, ev.Position)
			if d > cfg.Radius {
				continue
			}
			if !pw.nearby || d < pw.minDist {
				pw.minDist = d
			}
			if !pw.nearby {
				pw.firstHit = s.Tick
			}
			pw.nearby = true
		}
	}
	return players
}

// effect is the per-player evidence of impact in [0,1] for the utility kind.
func effect(kind model.UtilityKind, pw *playerWindow, cfg config.Utility) float64 {
	switch kind {
	case model.UtilityFlash:
		var peak float64
		for _, s := range pw.window {
			peak = max(peak, s.FlashDuration)
		}
		return geom.Clamp(peak/cfg.FlashFullDuration, 0, 1)

	case model.UtilityExplosive:
		start := pw.window[0].Health
		if pw.baseline != nil {
			start = pw.baseline.Health
		}
		lowest := start
		for _, s := range pw.window {
			lowest = min(lowest, s.Health)
		}
		return geom.Clamp(float64(start-lowest)/cfg.ExplosiveFullDamage, 0, 1)

	default: // smoke, incendiary: movement disruption
		seq := pw.window
		if pw.baseline != nil {
			seq = append([]model.TelemetrySample{*pw.baseline}, pw.window...)
		}
		var disruption float64
		for i, s := range seq {
			sp := geom.Speed(s.Velocity)
			if sp >= cfg.DisplacementSpeed && i > 0 {
				return 1
			}
			if i == 0 {
				continue
			}
			prev := geom.Speed(seq[i-1].Velocity)
			if prev >= cfg.MinMovingSpeed {
				disruption = max(disruption, geom.Clamp((prev-sp)/prev, 0, 1))
			}
		}
		return disruption
	}
}
