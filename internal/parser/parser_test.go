package parser

import (
	"testing"

	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"

	"github.com/pable/go-cs-tactics/internal/model"
)

func TestSideFromCommon(t *testing.T) {
	tests := []struct {
		team common.Team
		want model.Side
	}{
		{common.TeamTerrorists, model.SideA},
		{common.TeamCounterTerrorists, model.SideB},
		{common.TeamSpectators, model.SideNone},
		{common.TeamUnassigned, model.SideNone},
	}
	for _, tc := range tests {
		if got := sideFromCommon(tc.team); got != tc.want {
			t.Errorf("sideFromCommon(%v) = %v, want %v", tc.team, got, tc.want)
		}
	}
}

func TestParseDemo_MissingFile(t *testing.T) {
	if _, err := ParseDemo("does-not-exist.dem", Options{}); err == nil {
		t.Error("expected an error for a missing demo")
	}
}

type fakeLife bool

func (f fakeLife) IsAlive() bool { return bool(f) }

func TestRecordsThrower(t *testing.T) {
	tests := []struct {
		name  string
		live  bool
		alive bool
		want  bool
	}{
		{"alive during live round", true, true, true},
		{"dead thrower", true, false, false},
		{"outside live round", false, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := recordsThrower(tc.live, fakeLife(tc.alive)); got != tc.want {
				t.Errorf("recordsThrower(%v, alive=%v) = %v, want %v", tc.live, tc.alive, got, tc.want)
			}
		})
	}
}
