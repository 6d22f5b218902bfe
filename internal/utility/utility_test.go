package utility

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/pable/go-cs-tactics/internal/config"
	"github.com/pable/go-cs-tactics/internal/model"
)

func sample(tick int, id string, side model.Side, x, y float64) model.TelemetrySample {
	return model.TelemetrySample{
		Tick: tick, PlayerID: id, Side: side, RoundNumber: 1,
		Position: r3.Vector{X: x, Y: y}, Health: 100,
	}
}

func near(got, want float64) bool { return math.Abs(got-want) < 1e-9 }

func flashEvent() model.UtilityEvent {
	return model.UtilityEvent{Kind: model.UtilityFlash, Tick: 100, ThrowerID: "t1", Side: model.SideA}
}

func TestEstimate_NobodyInRangeGetsFloor(t *testing.T) {
	cfg := config.Default().Utility
	far := sample(100, "ct1", model.SideB, 500, 0)
	late := sample(100+cfg.WindowTicks+1, "ct2", model.SideB, 0, 0)
	thrower := sample(100, "t1", model.SideA, 0, 0)

	got := Estimate(flashEvent(), []model.TelemetrySample{thrower, far, late}, nil, cfg)
	if got.Affected != 0 {
		t.Errorf("Affected: want 0, got %d", got.Affected)
	}
	if got.Effectiveness != cfg.FloorValue {
		t.Errorf("Effectiveness: want floor %v, got %v", cfg.FloorValue, got.Effectiveness)
	}
	if got.Zone != model.Unmapped {
		t.Errorf("Zone: want %s without a catalog, got %s", model.Unmapped, got.Zone)
	}
}

func TestEstimate_FlashWithEnemyBonus(t *testing.T) {
	cfg := config.Default().Utility
	blind := sample(100, "ct1", model.SideB, 0, 0)
	blind.FlashDuration = 1.5

	got := Estimate(flashEvent(), []model.TelemetrySample{blind}, nil, cfg)
	if got.Affected != 1 {
		t.Fatalf("Affected: want 1, got %d", got.Affected)
	}
	// half blind (0.5) plus the full enemy bonus
	if !near(got.Effectiveness, 0.6) {
		t.Errorf("Effectiveness: want 0.6, got %v", got.Effectiveness)
	}
}

func TestEstimate_ExplosiveUsesPreEventHealth(t *testing.T) {
	cfg := config.Default().Utility
	before := sample(90, "t2", model.SideA, 0, 0)
	after := sample(100, "t2", model.SideA, 0, 0)
	after.Health = 60
	ev := model.UtilityEvent{Kind: model.UtilityExplosive, Tick: 100, ThrowerID: "t1", Side: model.SideA}

	got := Estimate(ev, []model.TelemetrySample{before, after}, nil, cfg)
	// 40 damage out of 80, teammate so no enemy bonus
	if !near(got.Effectiveness, 0.5) {
		t.Errorf("Effectiveness: want 0.5, got %v", got.Effectiveness)
	}
}

func TestEstimate_SmokeSlowsMovement(t *testing.T) {
	cfg := config.Default().Utility
	running := sample(90, "t2", model.SideA, 0, 0)
	running.Velocity = r3.Vector{X: 200}
	stopped := sample(100, "t2", model.SideA, 0, 0)
	stopped.Velocity = r3.Vector{X: 50}
	ev := model.UtilityEvent{Kind: model.UtilitySmoke, Tick: 100, ThrowerID: "t1", Side: model.SideA}

	got := Estimate(ev, []model.TelemetrySample{running, stopped}, nil, cfg)
	if !near(got.Effectiveness, 0.75) {
		t.Errorf("Effectiveness: want 0.75, got %v", got.Effectiveness)
	}

	fleeing := sample(100, "t2", model.SideA, 0, 0)
	fleeing.Velocity = r3.Vector{X: 400}
	ev.Kind = model.UtilityIncendiary
	got = Estimate(ev, []model.TelemetrySample{running, fleeing}, nil, cfg)
	if got.Effectiveness != 1 {
		t.Errorf("forced displacement: want 1, got %v", got.Effectiveness)
	}
}

func TestEstimate_RunSpeedIsNotDisplacement(t *testing.T) {
	cfg := config.Default().Utility
	walking := sample(90, "t2", model.SideA, 0, 0)
	walking.Velocity = r3.Vector{X: 200}
	knifeRun := sample(100, "t2", model.SideA, 0, 0)
	knifeRun.Velocity = r3.Vector{X: 250}
	ev := model.UtilityEvent{Kind: model.UtilitySmoke, Tick: 100, ThrowerID: "t1", Side: model.SideA}

	got := Estimate(ev, []model.TelemetrySample{walking, knifeRun}, nil, cfg)
	if got.Effectiveness != 0 {
		t.Errorf("running through a smoke is not disruption: want 0, got %v", got.Effectiveness)
	}
}

func TestEstimate_HighValueZoneBonus(t *testing.T) {
	cfg := config.Default().Utility
	catalog := []model.MapZone{
		{Label: "A Spawn", Spawn: model.SideA, Bounds: r2.RectFromPoints(r2.Point{X: -2000, Y: -2000}, r2.Point{X: -1000, Y: -1000})},
		{Label: "Mid", Bounds: r2.RectFromPoints(r2.Point{X: -100, Y: -100}, r2.Point{X: 100, Y: 100})},
	}
	mate := sample(100, "t2", model.SideA, 0, 0)
	mate.FlashDuration = 1.5

	got := Estimate(flashEvent(), []model.TelemetrySample{mate}, catalog, cfg)
	if got.Zone != "Mid" {
		t.Fatalf("Zone: want Mid, got %s", got.Zone)
	}
	if !near(got.Effectiveness, 0.5+cfg.HighValueBonus) {
		t.Errorf("Effectiveness: want %v, got %v", 0.5+cfg.HighValueBonus, got.Effectiveness)
	}
}

func TestEstimate_DistantHitsCountLess(t *testing.T) {
	cfg := config.Default().Utility
	hit := sample(100, "ct1", model.SideB, 0, 0)
	hit.FlashDuration = 3
	edge := sample(100, "ct1", model.SideB, 300, 0)
	edge.FlashDuration = 3

	a := Estimate(flashEvent(), []model.TelemetrySample{hit}, nil, cfg)
	b := Estimate(flashEvent(), []model.TelemetrySample{edge}, nil, cfg)
	if b.Effectiveness >= a.Effectiveness {
		t.Errorf("a hit at the edge of the radius should score lower: edge=%v hit=%v", b.Effectiveness, a.Effectiveness)
	}
	// 300 of 400 units away: weight 0.25, plus the enemy bonus
	if !near(b.Effectiveness, 0.25+cfg.EnemyBonus) {
		t.Errorf("edge hit: want %v, got %v", 0.25+cfg.EnemyBonus, b.Effectiveness)
	}
}

func TestEstimate_AlwaysBounded(t *testing.T) {
	cfg := config.Default().Utility
	var all []model.TelemetrySample
	for i := 0; i < 10; i++ {
		s := sample(95+i*10, "ct1", model.SideB, float64(i*30), 0)
		s.FlashDuration = float64(i)
		s.Health = 100 - i*10
		s.Velocity = r3.Vector{X: float64(400 - i*40)}
		all = append(all, s)
	}
	for k := model.UtilitySmoke; k <= model.UtilityIncendiary; k++ {
		ev := flashEvent()
		ev.Kind = k
		got := Estimate(ev, all, nil, cfg)
		if got.Effectiveness < 0 || got.Effectiveness > 1 {
			t.Errorf("%s: effectiveness %v out of [0,1]", k, got.Effectiveness)
		}
	}
}

func TestEventsFromSamples(t *testing.T) {
	plain := sample(10, "t1", model.SideA, 0, 0)
	thrown := sample(20, "ct1", model.SideB, 0, 0)
	thrown.Utility = &model.UtilityUse{Kind: model.UtilitySmoke, Position: r3.Vector{X: 5, Y: 6}}

	got := EventsFromSamples([]model.TelemetrySample{plain, thrown})
	if len(got) != 1 {
		t.Fatalf("want 1 event, got %d", len(got))
	}
	want := model.UtilityEvent{Kind: model.UtilitySmoke, Position: r3.Vector{X: 5, Y: 6}, Tick: 20, ThrowerID: "ct1", Side: model.SideB}
	if got[0] != want {
		t.Errorf("want %+v, got %+v", want, got[0])
	}
}
