package storage

import (
	"path/filepath"
	"testing"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"

	"github.com/pable/go-cs-tactics/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDemoInsertAndExists(t *testing.T) {
	db := openMemDB(t)

	summary := model.DemoSummary{
		Hash:       "abc123",
		Source:     "demo",
		MapName:    "de_dust2",
		ImportedAt: "2025-01-01T10:00:00Z",
		TickRate:   64,
		Rounds:     24,
	}
	if err := db.InsertDemo(summary); err != nil {
		t.Fatalf("InsertDemo: %v", err)
	}

	exists, err := db.DemoExists("abc123")
	if err != nil {
		t.Fatalf("DemoExists: %v", err)
	}
	if !exists {
		t.Error("expected demo to exist after insert")
	}

	exists2, _ := db.DemoExists("nonexistent")
	if exists2 {
		t.Error("expected non-existent demo to not exist")
	}

	// Re-importing updates in place.
	summary.Rounds = 30
	if err := db.InsertDemo(summary); err != nil {
		t.Fatalf("InsertDemo again: %v", err)
	}
	got, _ := db.GetDemoByPrefix("abc")
	if got == nil || got.Rounds != 30 {
		t.Errorf("expected updated round count 30, got %+v", got)
	}
}

func TestListDemos(t *testing.T) {
	db := openMemDB(t)

	summaries := []model.DemoSummary{
		{Hash: "h1", Source: "demo", MapName: "de_dust2", ImportedAt: "2025-01-01T00:00:00Z", TickRate: 64},
		{Hash: "h2", Source: "csv", MapName: "", ImportedAt: "2025-02-01T00:00:00Z", TickRate: 128},
	}
	for _, s := range summaries {
		if err := db.InsertDemo(s); err != nil {
			t.Fatalf("InsertDemo: %v", err)
		}
	}

	list, err := db.ListDemos()
	if err != nil {
		t.Fatalf("ListDemos: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 demos, got %d", len(list))
	}
	if list[0].Hash != "h2" {
		t.Errorf("expected h2 first (newest), got %s", list[0].Hash)
	}
}

func TestGetDemoByPrefix_NotFound(t *testing.T) {
	db := openMemDB(t)
	s, err := db.GetDemoByPrefix("zzz")
	if err != nil {
		t.Fatalf("GetDemoByPrefix: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil for unknown prefix, got %+v", s)
	}
}

func sampleReport(round int) *model.RoundReport {
	return &model.RoundReport{
		RoundNumber: round,
		Zones: []model.MapZone{
			{Label: "A Spawn", Spawn: model.SideA, Samples: 40,
				Bounds:   r2.Rect{X: r1.Interval{Lo: 50, Hi: 150}, Y: r1.Interval{Lo: 50, Hi: 150}},
				Centroid: r2.Point{X: 100, Y: 100}},
			{Label: "Mid", Samples: 12,
				Bounds:   r2.Rect{X: r1.Interval{Lo: 400, Hi: 600}, Y: r1.Interval{Lo: 400, Hi: 600}},
				Centroid: r2.Point{X: 500, Y: 500}},
		},
		Players: []model.PlayerReport{
			{
				Movement: model.MovementAnalysis{
					PlayerID: "76561198000000001", PlayerName: "alpha", Side: model.SideA, RoundNumber: round,
					TotalDistance: 1200, AverageSpeed: 150, PeakSpeed: 250, RotationCount: 2,
					ZonePresence: map[string]float64{"A Spawn": 0.4, "Mid": 0.6},
				},
				Roles: model.RoleAssessment{
					PlayerID: "76561198000000001", PositionConsistency: 0.7, RotationEfficiency: 0.4,
					MapCoverage: 0.5, TeammateDistance: 0,
					Signals: []model.RoleSignal{{Role: model.RoleEntry}, {Role: model.RoleLurker}},
				},
			},
		},
		SideA: model.TeamTacticalReport{
			Side: model.SideA, Players: 1, Cohesion: 0.5, MovementCoordination: 0.5, ExecutionScore: 1,
			MapControl:           map[string]float64{"A Spawn": 0.4, "Mid": 0.6},
			PowerPositionControl: map[string]float64{"Mid": 1},
		},
		SideB: model.TeamTacticalReport{
			Side: model.SideB, Cohesion: 0.5, MovementCoordination: 0.5,
			MapControl:           map[string]float64{},
			PowerPositionControl: map[string]float64{},
		},
		Utility: []model.UtilityImpact{
			{ThrowerID: "76561198000000001", Side: model.SideA, Kind: model.UtilitySmoke, Tick: 900,
				Position: r3.Vector{X: 500, Y: 510, Z: 8}, Zone: "Mid", Affected: 0, Effectiveness: 0.1},
		},
		Outcome: model.RoundOutcomeEstimate{
			ProbabilityA: 0.6, ProbabilityB: 0.4,
			Factors: []model.Factor{{Name: "zone_control", Adjustment: 0.1, Statement: "Side A has better power positions (+10.0%)"}},
		},
	}
}

func TestRoundReportsRoundTrip(t *testing.T) {
	db := openMemDB(t)
	if err := db.InsertDemo(model.DemoSummary{Hash: "h1", Source: "csv", ImportedAt: "2025-01-01T00:00:00Z", TickRate: 64}); err != nil {
		t.Fatal(err)
	}
	want := []*model.RoundReport{sampleReport(1), sampleReport(2)}
	if err := db.InsertRoundReports("h1", want); err != nil {
		t.Fatalf("InsertRoundReports: %v", err)
	}

	got, err := db.GetRoundReports("h1", 0)
	if err != nil {
		t.Fatalf("GetRoundReports: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored reports differ (-want +got):\n%s", diff)
	}

	one, err := db.GetRoundReports("h1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(one) != 1 || one[0].RoundNumber != 2 {
		t.Errorf("round filter: want only round 2, got %d reports", len(one))
	}
}

func TestInsertRoundReports_Replaces(t *testing.T) {
	db := openMemDB(t)
	if err := db.InsertDemo(model.DemoSummary{Hash: "h1", Source: "csv", ImportedAt: "2025-01-01T00:00:00Z", TickRate: 64}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRoundReports("h1", []*model.RoundReport{sampleReport(1), sampleReport(2)}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRoundReports("h1", []*model.RoundReport{sampleReport(5)}); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetRoundReports("h1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].RoundNumber != 5 {
		t.Errorf("expected only round 5 after re-insert, got %d reports", len(got))
	}
}

func TestDeleteDemo(t *testing.T) {
	db := openMemDB(t)
	if err := db.InsertDemo(model.DemoSummary{Hash: "h1", Source: "csv", ImportedAt: "2025-01-01T00:00:00Z", TickRate: 64}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRoundReports("h1", []*model.RoundReport{sampleReport(1)}); err != nil {
		t.Fatal(err)
	}

	ok, err := db.DeleteDemo("h1")
	if err != nil || !ok {
		t.Fatalf("DeleteDemo: ok=%v err=%v", ok, err)
	}
	if exists, _ := db.DemoExists("h1"); exists {
		t.Error("demo should be gone")
	}
	_, rows, err := db.QueryRaw("SELECT COUNT(*) FROM player_movement")
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0] != "0" {
		t.Errorf("round rows left behind: %s", rows[0][0])
	}

	if ok, err := db.DeleteDemo("h1"); err != nil || ok {
		t.Errorf("second delete: ok=%v err=%v", ok, err)
	}
}

func TestOpen_RejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tactics.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.conn.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected an error for a database with another schema version")
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	db.InsertDemo(model.DemoSummary{Hash: "h1", Source: "demo", MapName: "de_nuke", ImportedAt: "2025-01-01T00:00:00Z", TickRate: 64, Rounds: 3})

	cols, rows, err := db.QueryRaw("SELECT hash, map_name, rounds, NULL AS missing FROM demos")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if diff := cmp.Diff([]string{"hash", "map_name", "rounds", "missing"}, cols); diff != "" {
		t.Errorf("columns (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"h1", "de_nuke", "3", "NULL"}}, rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}

	if _, _, err := db.QueryRaw("SELECT * FROM nope"); err == nil {
		t.Error("expected an error for an unknown table")
	}
}
