package model

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		in   string
		want Side
		ok   bool
	}{
		{"A", SideA, true},
		{"t", SideA, true},
		{" B ", SideB, true},
		{"CT", SideB, true},
		{"spectator", SideNone, false},
		{"", SideNone, false},
	}
	for _, tc := range tests {
		got, err := ParseSide(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseSide(%q) = %v, %v; want %v, ok=%v", tc.in, got, err, tc.want, tc.ok)
		}
	}
}

func TestNewTelemetrySample_Validation(t *testing.T) {
	ok := func() (int, string, Side, int, r3.Vector, int, float64) {
		return 10, "p1", SideA, 1, r3.Vector{X: 1, Y: 2}, 100, 0
	}
	tick, id, side, round, pos, health, flash := ok()
	if _, err := NewTelemetrySample(tick, id, "alpha", side, round, pos, r3.Vector{}, health, flash, nil); err != nil {
		t.Fatalf("valid sample rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*int, *string, *Side, *int, *r3.Vector, *int, *float64)
	}{
		{"empty id", func(_ *int, id *string, _ *Side, _ *int, _ *r3.Vector, _ *int, _ *float64) { *id = "" }},
		{"no side", func(_ *int, _ *string, s *Side, _ *int, _ *r3.Vector, _ *int, _ *float64) { *s = SideNone }},
		{"round zero", func(_ *int, _ *string, _ *Side, r *int, _ *r3.Vector, _ *int, _ *float64) { *r = 0 }},
		{"negative tick", func(tk *int, _ *string, _ *Side, _ *int, _ *r3.Vector, _ *int, _ *float64) { *tk = -1 }},
		{"health over 100", func(_ *int, _ *string, _ *Side, _ *int, _ *r3.Vector, h *int, _ *float64) { *h = 101 }},
		{"negative flash", func(_ *int, _ *string, _ *Side, _ *int, _ *r3.Vector, _ *int, f *float64) { *f = -0.5 }},
		{"NaN position", func(_ *int, _ *string, _ *Side, _ *int, p *r3.Vector, _ *int, _ *float64) { p.X = math.NaN() }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tick, id, side, round, pos, health, flash := ok()
			tc.mutate(&tick, &id, &side, &round, &pos, &health, &flash)
			_, err := NewTelemetrySample(tick, id, "", side, round, pos, r3.Vector{}, health, flash, nil)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNewTelemetrySample_CopiesUtility(t *testing.T) {
	u := &UtilityUse{Kind: UtilitySmoke, Position: r3.Vector{X: 5}}
	s, err := NewTelemetrySample(1, "p1", "", SideB, 1, r3.Vector{}, r3.Vector{}, 100, 0, u)
	if err != nil {
		t.Fatal(err)
	}
	u.Position.X = 99
	if s.Utility.Position.X != 5 {
		t.Errorf("sample should not alias the caller's utility, got X=%v", s.Utility.Position.X)
	}
}

func TestDominantZone(t *testing.T) {
	m := MovementAnalysis{ZonePresence: map[string]float64{"Mid": 0.4, "B Site": 0.4, "A Ramp": 0.2}}
	if z, v := m.DominantZone(); z != "B Site" || v != 0.4 {
		t.Errorf("want B Site 0.4 (lexical tie-break), got %s %v", z, v)
	}
	if z, _ := (MovementAnalysis{}).DominantZone(); z != "" {
		t.Errorf("empty presence should have no dominant zone, got %q", z)
	}
}

func TestTeamReportHelpers(t *testing.T) {
	att := TeamTacticalReport{Side: SideA, ExecutionScore: 0.7, SetupScore: 0.1}
	def := TeamTacticalReport{Side: SideB, ExecutionScore: 0.1, SetupScore: 0.6,
		PowerPositionControl: map[string]float64{"Mid": 1, "Long": 0.5}}

	if att.SideScore() != 0.7 || def.SideScore() != 0.6 {
		t.Errorf("SideScore picks the wrong score: %v, %v", att.SideScore(), def.SideScore())
	}
	if att.MeanPowerControl() != 0.5 {
		t.Errorf("no power zones should be neutral, got %v", att.MeanPowerControl())
	}
	if def.MeanPowerControl() != 0.75 {
		t.Errorf("want 0.75, got %v", def.MeanPowerControl())
	}
}

func TestMeanPowerControl_SameEveryCall(t *testing.T) {
	r := TeamTacticalReport{Side: SideA, PowerPositionControl: map[string]float64{
		"Mid": 0.1, "North": 0.7, "North East": 0.33, "South": 0.9, "South West": 0.2, "West": 0.481,
	}}
	want := (((((0.1 + 0.7) + 0.33) + 0.9) + 0.2) + 0.481) / 6
	for i := 0; i < 500; i++ {
		if got := r.MeanPowerControl(); got != want {
			t.Fatalf("call %d: want %v, got %v", i, want, got)
		}
	}
}
