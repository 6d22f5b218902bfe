package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"

	"github.com/pable/go-cs-tactics/internal/config"
	"github.com/pable/go-cs-tactics/internal/model"
)

// twoCamps returns five ticks of one attacker near (100,100) and one
// defender near (900,900).
func twoCamps(round int) []model.TelemetrySample {
	var out []model.TelemetrySample
	for i := 0; i < 5; i++ {
		tick := 1000*round + i*8
		out = append(out,
			model.TelemetrySample{Tick: tick, PlayerID: "t1", PlayerName: "alpha", Side: model.SideA, RoundNumber: round,
				Position: r3.Vector{X: 100 + float64(i), Y: 100}, Health: 100},
			model.TelemetrySample{Tick: tick, PlayerID: "ct1", PlayerName: "bravo", Side: model.SideB, RoundNumber: round,
				Position: r3.Vector{X: 900, Y: 900 + float64(i)}, Health: 100},
		)
	}
	return out
}

func TestAnalyzeRound_TwoCamps(t *testing.T) {
	r, err := AnalyzeRound(twoCamps(1), config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Zones) != 2 {
		t.Fatalf("want 2 zones, got %d", len(r.Zones))
	}
	if len(r.Players) != 2 || r.Players[0].Movement.PlayerID != "ct1" || r.Players[1].Movement.PlayerID != "t1" {
		t.Fatalf("players should be in ID order, got %+v", r.Players)
	}
	for _, p := range r.Players {
		if p.Movement.RotationCount != 0 {
			t.Errorf("%s: want 0 rotations, got %d", p.Movement.PlayerID, p.Movement.RotationCount)
		}
	}
	if got := r.SideA.MapControl["A Spawn"]; got != 1 {
		t.Errorf("side A control of its own camp: want 1, got %v", got)
	}
	if got := r.SideB.MapControl["B Spawn"]; got != 1 {
		t.Errorf("side B control of its own camp: want 1, got %v", got)
	}
	if s := r.Outcome.ProbabilityA + r.Outcome.ProbabilityB; math.Abs(s-1) > 1e-12 {
		t.Errorf("probabilities must sum to 1, got %v", s)
	}
}

func TestAnalyzeRound_Idempotent(t *testing.T) {
	samples := twoCamps(3)
	samples[4].Utility = &model.UtilityUse{Kind: model.UtilityFlash, Position: r3.Vector{X: 880, Y: 880}}

	a, err := AnalyzeRound(samples, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	b, err := AnalyzeRound(samples, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("reports differ across runs (-first +second):\n%s", diff)
	}
	if len(a.Utility) != 1 {
		t.Errorf("want 1 utility impact, got %d", len(a.Utility))
	}
}

// crossing sends two players per side diagonally across a 3000x3000 map so
// both sides pass through several shared, non-spawn zones.
func crossing(round int) []model.TelemetrySample {
	paths := []struct {
		id             string
		side           model.Side
		x0, y0, dx, dy float64
	}{
		{"t1", model.SideA, 0, 0, 1, 1},
		{"t2", model.SideA, 3000, 0, -1, 1},
		{"ct1", model.SideB, 0, 3000, 1, -1},
		{"ct2", model.SideB, 3000, 3000, -1, -1},
	}
	var out []model.TelemetrySample
	for i := 0; i <= 60; i++ {
		step := float64(i) * 50
		for _, p := range paths {
			out = append(out, model.TelemetrySample{
				Tick: 1000*round + i*16, PlayerID: p.id, Side: p.side, RoundNumber: round,
				Position: r3.Vector{X: p.x0 + p.dx*step, Y: p.y0 + p.dy*step}, Health: 100,
			})
		}
	}
	return out
}

func TestAnalyzeRound_RepeatableWithContestedZones(t *testing.T) {
	samples := crossing(4)
	first, err := AnalyzeRound(samples, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(first.SideA.PowerPositionControl) < 2 {
		t.Fatalf("want several contested zones, got %v", first.SideA.PowerPositionControl)
	}
	for run := 0; run < 20; run++ {
		again, err := AnalyzeRound(samples, config.Default())
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", run, diff)
		}
	}
}

func TestAnalyzeRound_OneSided(t *testing.T) {
	var attackers []model.TelemetrySample
	for _, s := range twoCamps(1) {
		if s.Side == model.SideA {
			attackers = append(attackers, s)
		}
	}
	r, err := AnalyzeRound(attackers, config.Default())
	if err != nil {
		t.Fatalf("a round with one side recorded should still analyse: %v", err)
	}
	if r.SideB.Players != 0 || r.SideB.Cohesion != 0.5 {
		t.Errorf("missing side should get a neutral report, got %+v", r.SideB)
	}
}

func TestAnalyzeRound_InvalidInput(t *testing.T) {
	mixed := twoCamps(1)
	mixed[3].RoundNumber = 2
	backwards := twoCamps(1)
	backwards[2].Tick, backwards[3].Tick = backwards[3].Tick+100, backwards[2].Tick

	tests := []struct {
		name    string
		samples []model.TelemetrySample
	}{
		{"empty", nil},
		{"mixed rounds", mixed},
		{"ticks go backwards", backwards},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := AnalyzeRound(tc.samples, config.Default()); !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAnalyzeRounds_PreservesOrder(t *testing.T) {
	rounds := [][]model.TelemetrySample{twoCamps(3), twoCamps(1), twoCamps(2)}
	got, err := AnalyzeRounds(context.Background(), rounds, config.Default(), 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int{3, 1, 2} {
		if got[i].RoundNumber != want {
			t.Errorf("report %d: want round %d, got %d", i, want, got[i].RoundNumber)
		}
	}
}

func TestAnalyzeRounds_StopsOnError(t *testing.T) {
	rounds := [][]model.TelemetrySample{twoCamps(1), nil}
	if _, err := AnalyzeRounds(context.Background(), rounds, config.Default(), 1, nil); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("want ErrInvalidInput, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := AnalyzeRounds(ctx, [][]model.TelemetrySample{twoCamps(1)}, config.Default(), 1, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestSplitRounds(t *testing.T) {
	stream := append(twoCamps(2), twoCamps(1)...)
	stream[0], stream[2] = stream[2], stream[0] // tick 8 before tick 0

	got := SplitRounds(stream)
	if len(got) != 2 {
		t.Fatalf("want 2 rounds, got %d", len(got))
	}
	if got[0][0].RoundNumber != 1 || got[1][0].RoundNumber != 2 {
		t.Errorf("rounds not ascending: %d, %d", got[0][0].RoundNumber, got[1][0].RoundNumber)
	}
	for _, r := range got {
		for i := 1; i < len(r); i++ {
			if r[i].Tick < r[i-1].Tick {
				t.Fatalf("round %d: tick order broken at %d", r[0].RoundNumber, i)
			}
		}
	}
}
