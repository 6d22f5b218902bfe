package telemetry

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"

	"github.com/pable/go-cs-tactics/internal/model"
)

func TestRead_MinimalColumnsAnyOrder(t *testing.T) {
	in := `round,side,player_id,tick,x,y,z,health
1,T,765,128,10.5,-20,0,100
1,CT,766,128,900,900,16,87
`
	got, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 samples, got %d", len(got))
	}
	if got[0].Side != model.SideA || got[1].Side != model.SideB {
		t.Errorf("T/CT should map to A/B, got %v/%v", got[0].Side, got[1].Side)
	}
	if got[0].Position != (r3.Vector{X: 10.5, Y: -20}) {
		t.Errorf("position: got %+v", got[0].Position)
	}
	if got[1].Health != 87 || got[0].Utility != nil {
		t.Errorf("unexpected sample: %+v", got[1])
	}
}

func TestWriteRead_PreservesUtility(t *testing.T) {
	samples := []model.TelemetrySample{
		{Tick: 64, PlayerID: "p1", PlayerName: "alpha, the first", Side: model.SideA, RoundNumber: 2,
			Position: r3.Vector{X: 1, Y: 2, Z: 3}, Velocity: r3.Vector{X: 250}, Health: 100, FlashDuration: 1.25,
			Utility: &model.UtilityUse{Kind: model.UtilityIncendiary, Position: r3.Vector{X: 40, Y: 50, Z: 0}}},
		{Tick: 72, PlayerID: "p2", Side: model.SideB, RoundNumber: 2, Health: 0},
	}
	var buf bytes.Buffer
	if err := Write(&buf, samples); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(samples, got); diff != "" {
		t.Errorf("samples changed through CSV (-want +got):\n%s", diff)
	}
}

func TestRead_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing column", "tick,player_id,side,round,x,y,z\n1,p,A,1,0,0,0\n"},
		{"bad side", "tick,player_id,side,round,x,y,z,health\n1,p,X,1,0,0,0,100\n"},
		{"bad number", "tick,player_id,side,round,x,y,z,health\nabc,p,A,1,0,0,0,100\n"},
		{"health out of range", "tick,player_id,side,round,x,y,z,health\n1,p,A,1,0,0,0,140\n"},
		{"bad utility", "tick,player_id,side,round,x,y,z,health,utility_kind\n1,p,A,1,0,0,0,100,decoy\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.in))
			if !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRead_ErrorNamesRow(t *testing.T) {
	in := "tick,player_id,side,round,x,y,z,health\n1,p,A,1,0,0,0,100\n2,p,A,0,0,0,0,100\n"
	_, err := Read(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error should name row 3, got %v", err)
	}
}
