package parser

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	demoinfocs "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs"
	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"
	"github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/events"

	"github.com/pable/go-cs-tactics/internal/model"
)

// DefaultInterval samples every player eight times a second on 64-tick demos.
const DefaultInterval = 8

// Options tunes demo sampling.
type Options struct {
	// Interval is the tick spacing between position samples. Values < 1
	// use DefaultInterval.
	Interval int
	Log      *slog.Logger
	// Progress, when set, receives the parsed fraction of the file in
	// [0,1] at every round end and once more when parsing finishes.
	Progress func(float64)
}

// ParsedDemo is the telemetry extracted from one demo file.
type ParsedDemo struct {
	Hash     string
	MapName  string
	TickRate float64
	Rounds   int
	Samples  []model.TelemetrySample
}

// ParseDemo reads the demo at path and samples every live player between
// freeze-time end and round end. Warmup is skipped. Each grenade detonation
// by a living thrower adds a sample for them at the detonation tick carrying
// the utility use.
func ParseDemo(path string, opts Options) (*ParsedDemo, error) {
	if opts.Interval < 1 {
		opts.Interval = DefaultInterval
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(float64) {}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()

	// Hash file for idempotency key.
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash demo: %w", err)
	}
	demoHash := fmt.Sprintf("%x", h.Sum(nil))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek demo: %w", err)
	}

	p := demoinfocs.NewParser(f)
	defer p.Close()

	out := &ParsedDemo{Hash: demoHash}

	var (
		roundNumber int
		live        bool
		lastSample  = -1
		skipped     int
	)

	record := func(pl *common.Player, tick int, util *model.UtilityUse) {
		side := sideFromCommon(pl.Team)
		if side == model.SideNone || pl.SteamID64 == 0 {
			return
		}
		health := min(max(pl.Health(), 0), 100)
		s, err := model.NewTelemetrySample(tick, strconv.FormatUint(pl.SteamID64, 10), pl.Name, side, roundNumber,
			pl.Position(), pl.Velocity(), health, pl.FlashDurationTimeRemaining().Seconds(), util)
		if err != nil {
			skipped++
			return
		}
		out.Samples = append(out.Samples, s)
	}

	p.RegisterEventHandler(func(e events.RoundStart) {
		if p.GameState().IsWarmupPeriod() {
			return
		}
		roundNumber++
		live = false
	})

	p.RegisterEventHandler(func(e events.RoundFreezetimeEnd) {
		if roundNumber == 0 {
			return
		}
		live = true
		lastSample = -1
	})

	p.RegisterEventHandler(func(e events.RoundEnd) {
		progress(float64(p.Progress()))
		if roundNumber == 0 || !live {
			return
		}
		live = false
		out.Rounds = roundNumber
		log.Debug("round sampled", "round", roundNumber, "tick", p.GameState().IngameTick(), "samples", len(out.Samples))
	})

	p.RegisterEventHandler(func(e events.FrameDone) {
		if !live {
			return
		}
		tick := p.GameState().IngameTick()
		if lastSample >= 0 && tick-lastSample < opts.Interval {
			return
		}
		lastSample = tick
		for _, pl := range p.GameState().Participants().Playing() {
			if pl == nil || !pl.IsAlive() {
				continue
			}
			record(pl, tick, nil)
		}
	})

	onGrenade := func(kind model.UtilityKind, e events.GrenadeEvent) {
		if e.Thrower == nil || !recordsThrower(live, e.Thrower) {
			return
		}
		record(e.Thrower, p.GameState().IngameTick(), &model.UtilityUse{Kind: kind, Position: e.Position})
	}
	p.RegisterEventHandler(func(e events.SmokeStart) { onGrenade(model.UtilitySmoke, e.GrenadeEvent) })
	p.RegisterEventHandler(func(e events.FlashExplode) { onGrenade(model.UtilityFlash, e.GrenadeEvent) })
	p.RegisterEventHandler(func(e events.HeExplode) { onGrenade(model.UtilityExplosive, e.GrenadeEvent) })
	p.RegisterEventHandler(func(e events.FireGrenadeStart) { onGrenade(model.UtilityIncendiary, e.GrenadeEvent) })

	if err := p.ParseToEnd(); err != nil {
		return nil, fmt.Errorf("parse demo: %w", err)
	}
	progress(1)

	out.MapName = p.Header().MapName
	out.TickRate = p.TickRate()
	if out.Rounds < roundNumber {
		out.Rounds = roundNumber
	}
	if skipped > 0 {
		log.Warn("dropped malformed samples", "count", skipped)
	}
	return out, nil
}

// lifeState is the part of a player the grenade filter reads.
type lifeState interface{ IsAlive() bool }

// recordsThrower reports whether a detonation adds a sample for its thrower.
// Grenades can detonate after the thrower died, when the position is stale.
func recordsThrower(live bool, thrower lifeState) bool {
	return live && thrower.IsAlive()
}

func sideFromCommon(t common.Team) model.Side {
	switch t {
	case common.TeamTerrorists:
		return model.SideA
	case common.TeamCounterTerrorists:
		return model.SideB
	default:
		return model.SideNone
	}
}
